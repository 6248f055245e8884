package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bazarghor/payments-gobackend/internal/config"
	"github.com/bazarghor/payments-gobackend/internal/models"
	"github.com/bazarghor/payments-gobackend/internal/payload"
)

// CallbackVariant names the three gateway callback entry points.
type CallbackVariant string

const (
	CallbackSuccess CallbackVariant = "success"
	CallbackFail    CallbackVariant = "fail"
	CallbackCancel  CallbackVariant = "cancel"
)

// Outcome is the uniform result of reconciling one gateway callback. Every
// callback resolves to an outcome; the reconciler never returns an error
// to its caller.
type Outcome struct {
	Status       string // "success" or "fail"
	ErrorMessage string
	TranID       string
	Order        *models.OrderPayload
	RedirectURL  string
}

// ReconcilerService recovers the order payload echoed back by the gateway,
// verifies it against the callback, updates the backend order on success
// and produces the client-facing redirect.
//
// Each invocation walks RECEIVED -> VALIDATED -> PAYLOAD_RECOVERED ->
// [RECONCILED | CONTEXT_MISSING] -> REDIRECTED without any shared state;
// the only side effect is the backend order update.
type ReconcilerService struct {
	cfg       config.Config
	orders    *OrderService
	analytics *AnalyticsService
	logger    *zap.Logger
}

func NewReconcilerService(cfg config.Config, orders *OrderService, analytics *AnalyticsService, logger *zap.Logger) *ReconcilerService {
	return &ReconcilerService{cfg: cfg, orders: orders, analytics: analytics, logger: logger}
}

// Reconcile processes one callback body. form is the gateway's
// form-encoded POST, already parsed.
func (s *ReconcilerService) Reconcile(ctx context.Context, variant CallbackVariant, form url.Values) Outcome {
	tranID := form.Get("tran_id")
	if tranID == "" {
		s.logger.Warn("callback missing tran_id", zap.String("variant", string(variant)))
		return s.fail("Invalid payment response", "", nil)
	}

	if variant == CallbackSuccess {
		if form.Get("val_id") == "" || form.Get("amount") == "" || form.Get("status") != "VALID" {
			s.logger.Warn("success callback failed gateway validation",
				zap.String("tranId", tranID),
				zap.String("status", form.Get("status")))
			return s.fail("Payment validation failed", tranID, nil)
		}
	}

	order, err := s.recoverOrder(form, variant)
	if err != nil {
		s.logger.Warn("order payload unrecoverable, proceeding without context",
			zap.String("variant", string(variant)),
			zap.String("tranId", tranID),
			zap.Error(err))
		if variant == CallbackSuccess {
			// Without backendOrderId there is nothing to confirm against.
			return s.fail("Order context unavailable", tranID, nil)
		}
		return s.fail(gatewayErrorText(variant, form), tranID, nil)
	}

	if order.TransactionID != tranID {
		mismatch := &models.IdentityMismatchError{Payload: order.TransactionID, Callback: tranID}
		s.logger.Warn("transaction id mismatch",
			zap.String("variant", string(variant)),
			zap.Error(mismatch))
		if variant == CallbackSuccess {
			return s.fail("Transaction ID mismatch", tranID, nil)
		}
		// Non-fatal for fail/cancel: keep the gateway-reported id.
		order.TransactionID = tranID
	}

	if variant != CallbackSuccess {
		return s.fail(gatewayErrorText(variant, form), tranID, order)
	}

	details := settlementDetails(form)
	if err := s.orders.ConfirmPayment(ctx, order.BackendOrderID, tranID, details); err != nil {
		s.logger.Error("backend payment confirmation failed",
			zap.String("tranId", tranID),
			zap.String("orderId", order.BackendOrderID),
			zap.Error(err))
		return s.fail("Failed to confirm payment", tranID, order)
	}

	s.analytics.TrackPurchase(*order, form.Get("amount"))
	s.logger.Info("payment reconciled",
		zap.String("tranId", tranID),
		zap.String("orderId", order.BusinessOrderID))

	out := Outcome{Status: "success", TranID: tranID, Order: order}
	out.RedirectURL = s.redirectURL(out)
	return out
}

// FailureOutcome builds the backstop failure outcome used when a handler
// panics or cannot even parse the callback.
func (s *ReconcilerService) FailureOutcome(message string) Outcome {
	return s.fail(message, "", nil)
}

func (s *ReconcilerService) fail(message, tranID string, order *models.OrderPayload) Outcome {
	out := Outcome{Status: "fail", ErrorMessage: message, TranID: tranID, Order: order}
	out.RedirectURL = s.redirectURL(out)
	return out
}

func (s *ReconcilerService) recoverOrder(form url.Values, variant CallbackVariant) (*models.OrderPayload, error) {
	joined := payload.Join(form.Get("value_a"), form.Get("value_b"), form.Get("value_c"), form.Get("value_d"))
	if joined == "" {
		return nil, &models.DecodeError{Cause: errors.New("callback carried no payload chunks")}
	}
	order, err := payload.Decode(joined, variant == CallbackSuccess)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// redirectURL builds the order-status page URL for an outcome. Order
// context parameters are attached only when the payload was recovered.
func (s *ReconcilerService) redirectURL(out Outcome) string {
	base := strings.TrimRight(s.cfg.SiteURL, "/")
	if base == "" {
		base = config.FallbackSiteURL
	}

	q := url.Values{}
	q.Set("status", out.Status)
	if out.ErrorMessage != "" {
		q.Set("error", out.ErrorMessage)
	}
	if out.TranID != "" {
		q.Set("tranId", out.TranID)
	}
	if out.Order != nil {
		order := out.Order
		q.Set("orderId", order.BusinessOrderID)
		q.Set("_id", order.BackendOrderID)
		q.Set("customerName", order.Customer.Name)
		q.Set("customerPhone", order.Customer.Phone)
		q.Set("customerAddress", order.Customer.Address)
		q.Set("total", formatAmount(order.Total))
		q.Set("deliveryCharge", formatAmount(order.DeliveryCharge))
		q.Set("itemCount", strconv.Itoa(len(order.Items)))
		q.Set("discountAmount", formatAmount(order.AdditionalDiscountAmount))
		for i, item := range order.Items {
			q.Set(fmt.Sprintf("itemName%d", i), item.Name)
			q.Set(fmt.Sprintf("itemPrice%d", i), formatAmount(item.Price))
			q.Set(fmt.Sprintf("itemQty%d", i), strconv.Itoa(item.Quantity))
		}
	}
	return base + "/orderstatus?" + q.Encode()
}

func gatewayErrorText(variant CallbackVariant, form url.Values) string {
	if msg := form.Get("error"); msg != "" {
		return msg
	}
	if variant == CallbackCancel {
		return "Payment cancelled"
	}
	return "Payment failed"
}

// settlementDetails collects the gateway fields forwarded to the backend
// as payment_details.
func settlementDetails(form url.Values) map[string]string {
	details := map[string]string{}
	for _, key := range []string{"val_id", "amount", "currency", "status", "tran_date", "bank_tran_id", "card_type", "card_issuer"} {
		if v := form.Get(key); v != "" {
			details[key] = v
		}
	}
	return details
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
