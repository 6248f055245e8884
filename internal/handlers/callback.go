package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/bazarghor/payments-gobackend/internal/config"
	"github.com/bazarghor/payments-gobackend/internal/services"
)

// CallbackHandler receives the gateway's success/fail/cancel POSTs. Each
// variant resolves to a redirect to the storefront's order-status page, or
// an equivalent JSON body when the caller asked for JSON.
type CallbackHandler struct {
	cfg        config.Config
	reconciler *services.ReconcilerService
	logger     *zap.Logger
}

func NewCallbackHandler(cfg config.Config, reconciler *services.ReconcilerService, logger *zap.Logger) *CallbackHandler {
	return &CallbackHandler{cfg: cfg, reconciler: reconciler, logger: logger}
}

func (h *CallbackHandler) Success(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, services.CallbackSuccess)
}

func (h *CallbackHandler) Fail(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, services.CallbackFail)
}

func (h *CallbackHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, services.CallbackCancel)
}

// IPN is the gateway's server-to-server notification sink. The redirect
// callbacks carry the authoritative flow; here we only acknowledge.
func (h *CallbackHandler) IPN(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("unparseable IPN body", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}
	h.logger.Info("ipn received",
		zap.String("tranId", r.PostForm.Get("tran_id")),
		zap.String("status", r.PostForm.Get("status")))
	w.WriteHeader(http.StatusOK)
}

func (h *CallbackHandler) handle(w http.ResponseWriter, r *http.Request, variant services.CallbackVariant) {
	// The browser must always land somewhere, whatever went wrong here.
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("callback handler panicked",
				zap.String("variant", string(variant)),
				zap.Any("panic", rec))
			h.respond(w, r, h.backstopOutcome())
		}
	}()

	var outcome services.Outcome
	if err := h.cfg.ValidateCallback(); err != nil {
		h.logger.Error("callback configuration incomplete",
			zap.String("variant", string(variant)), zap.Error(err))
		outcome = h.backstopOutcome()
	} else if err := r.ParseForm(); err != nil {
		h.logger.Warn("unparseable callback body",
			zap.String("variant", string(variant)), zap.Error(err))
		outcome = h.reconciler.FailureOutcome("Invalid payment response")
	} else {
		outcome = h.reconciler.Reconcile(r.Context(), variant, r.PostForm)
	}
	h.respond(w, r, outcome)
}

// respond issues the redirect, or the JSON equivalent for API clients that
// sent Accept: application/json. The JSON body carries the same fields the
// redirect would encode in its query string.
func (h *CallbackHandler) respond(w http.ResponseWriter, r *http.Request, outcome services.Outcome) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		body := map[string]string{
			"redirectUrl": outcome.RedirectURL,
			"status":      outcome.Status,
		}
		if outcome.ErrorMessage != "" {
			body["error"] = outcome.ErrorMessage
		}
		if outcome.TranID != "" {
			body["tranId"] = outcome.TranID
		}
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.logger.Error("failed to encode callback response", zap.Error(err))
		}
		return
	}
	http.Redirect(w, r, outcome.RedirectURL, http.StatusSeeOther)
}

// backstopOutcome builds the last-resort failure redirect without touching
// anything that could fail again.
func (h *CallbackHandler) backstopOutcome() services.Outcome {
	base := strings.TrimRight(h.cfg.SiteURL, "/")
	if base == "" {
		base = config.FallbackSiteURL
	}
	q := url.Values{}
	q.Set("status", "fail")
	q.Set("error", "Payment processing failed")
	return services.Outcome{
		Status:       "fail",
		ErrorMessage: "Payment processing failed",
		RedirectURL:  base + "/orderstatus?" + q.Encode(),
	}
}
