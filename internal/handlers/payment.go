package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bazarghor/payments-gobackend/internal/models"
	"github.com/bazarghor/payments-gobackend/internal/services"
)

type PaymentHandler struct {
	service *services.InitiationService
	logger  *zap.Logger
}

func NewPaymentHandler(service *services.InitiationService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, logger: logger}
}

// InitiatePayment opens a gateway payment session for an already-created
// order and returns the redirect target for the chosen payment method.
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req services.InitiationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Initiate(r.Context(), req)
	if err != nil {
		h.logger.Error("payment initiation failed",
			zap.String("orderId", req.BusinessOrderID), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to encode initiation result", zap.Error(err))
	}
}

// statusForError maps the error taxonomy to HTTP statuses for the
// initiation path. Callback paths never use this; they always redirect.
func statusForError(err error) int {
	var (
		validationErr *models.ValidationError
		methodErr     *models.MethodUnavailableError
		tooLargeErr   *models.PayloadTooLargeError
		gatewayErr    *models.GatewayError
		configErr     *models.ConfigurationError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &methodErr):
		return http.StatusBadRequest
	case errors.As(err, &tooLargeErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &gatewayErr):
		return http.StatusBadGateway
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
