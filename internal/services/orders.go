package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bazarghor/payments-gobackend/internal/config"
	"github.com/bazarghor/payments-gobackend/internal/models"
)

// OrderService talks to the backend order API, the system of record for
// orders. This service never creates orders; it only confirms payment on
// records that already exist.
type OrderService struct {
	cfg    config.Config
	client *http.Client
	logger *zap.Logger
}

func NewOrderService(cfg config.Config, logger *zap.Logger) *OrderService {
	return &OrderService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// ConfirmPayment marks the backend order as paid, attaching the gateway's
// settlement fields. At-most-once application for a given
// (backendOrderID, transactionID) pair is the backend's responsibility.
func (s *OrderService) ConfirmPayment(ctx context.Context, backendOrderID, transactionID string, details map[string]string) error {
	endpoint := fmt.Sprintf("%s/public/%s/%s/%s/%s/online-order-payment-update",
		strings.TrimRight(s.cfg.APIBaseURL, "/"),
		s.cfg.OwnerID, s.cfg.BusinessID, backendOrderID, transactionID)

	body, err := json.Marshal(map[string]any{
		"payment_status":  "completed",
		"payment_details": details,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &models.ReconciliationError{StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		s.logger.Error("order payment update rejected",
			zap.String("orderId", backendOrderID),
			zap.String("tranId", transactionID),
			zap.Int("status", resp.StatusCode))
		return &models.ReconciliationError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
