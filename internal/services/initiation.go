package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazarghor/payments-gobackend/internal/config"
	"github.com/bazarghor/payments-gobackend/internal/models"
	"github.com/bazarghor/payments-gobackend/internal/payload"
)

// InitiationRequest is the storefront client's payment-start request. The
// backend order record identified by BackendOrderID must already exist;
// initiation only opens a gateway session for it.
type InitiationRequest struct {
	Customer       models.Customer    `json:"customer"`
	Items          []models.OrderItem `json:"items"`
	Total          float64            `json:"total"`
	Due            *float64           `json:"due,omitempty"`
	DeliveryArea   string             `json:"delivery_area,omitempty"`
	Note           string             `json:"note,omitempty"`
	DeliveryCharge float64            `json:"delivery_charge,omitempty"`

	AdditionalDiscountType   string  `json:"additional_discount_type,omitempty"`
	AdditionalDiscountAmount float64 `json:"additional_discount_amount,omitempty"`

	PaymentMethod   string `json:"paymentMethod"` // bkash | nagad | card
	TransactionID   string `json:"transactionId,omitempty"`
	BusinessOrderID string `json:"businessOrderId"`
	BackendOrderID  string `json:"backendOrderId"`
}

type InitiationResult struct {
	RedirectURL     string `json:"redirectUrl"`
	SessionKey      string `json:"sessionKey"`
	TransactionID   string `json:"transactionId"`
	BusinessOrderID string `json:"businessOrderId"`
	BackendOrderID  string `json:"backendOrderId"`
}

type InitiationService struct {
	cfg     config.Config
	gateway *SSLCommerzService
	logger  *zap.Logger
}

func NewInitiationService(cfg config.Config, gateway *SSLCommerzService, logger *zap.Logger) *InitiationService {
	return &InitiationService{cfg: cfg, gateway: gateway, logger: logger}
}

// Initiate validates the request, packs the order summary into the four
// gateway passthrough fields, opens a gateway session and picks the
// redirect URL for the chosen payment method.
func (s *InitiationService) Initiate(ctx context.Context, req InitiationRequest) (*InitiationResult, error) {
	if err := s.cfg.ValidateInitiation(); err != nil {
		return nil, err
	}
	if err := validateInitiation(req); err != nil {
		return nil, err
	}

	tranID := req.TransactionID
	if tranID == "" {
		tranID = uuid.NewString()
	}

	order := models.OrderPayload{
		Customer:                 req.Customer,
		Items:                    req.Items,
		Total:                    req.Total,
		Due:                      req.Total,
		DeliveryArea:             req.DeliveryArea,
		Note:                     req.Note,
		DeliveryCharge:           req.DeliveryCharge,
		AdditionalDiscountType:   req.AdditionalDiscountType,
		AdditionalDiscountAmount: req.AdditionalDiscountAmount,
		TransactionID:            tranID,
		BusinessOrderID:          req.BusinessOrderID,
		BackendOrderID:           req.BackendOrderID,
	}
	if req.Due != nil {
		order.Due = *req.Due
	}

	encoded, err := payload.Encode(order)
	if err != nil {
		return nil, err
	}
	chunks := payload.Split(encoded)

	form := s.sessionForm(order, chunks, req.PaymentMethod)
	session, err := s.gateway.CreateSession(ctx, form)
	if err != nil {
		s.logger.Error("gateway session creation failed",
			zap.String("tranId", tranID), zap.Error(err))
		return nil, err
	}

	redirectURL, err := s.gateway.RedirectURLFor(session, req.PaymentMethod)
	if err != nil {
		s.logger.Warn("requested payment method not offered by gateway",
			zap.String("tranId", tranID), zap.String("method", req.PaymentMethod))
		return nil, err
	}

	s.logger.Info("payment session created",
		zap.String("tranId", tranID),
		zap.String("orderId", req.BusinessOrderID),
		zap.String("method", req.PaymentMethod))

	return &InitiationResult{
		RedirectURL:     redirectURL,
		SessionKey:      session.SessionKey,
		TransactionID:   tranID,
		BusinessOrderID: req.BusinessOrderID,
		BackendOrderID:  req.BackendOrderID,
	}, nil
}

func (s *InitiationService) sessionForm(order models.OrderPayload, chunks [payload.ChunkCount]string, method string) url.Values {
	callbackBase := strings.TrimRight(s.cfg.SiteURL, "/") + "/api/payment"

	form := url.Values{}
	form.Set("store_id", s.cfg.StoreID)
	form.Set("store_passwd", s.cfg.StorePassword)
	form.Set("total_amount", decimal.NewFromFloat(order.Total).StringFixed(2))
	form.Set("currency", "BDT")
	form.Set("tran_id", order.TransactionID)
	form.Set("success_url", callbackBase+"/success")
	form.Set("fail_url", callbackBase+"/fail")
	form.Set("cancel_url", callbackBase+"/cancel")
	form.Set("ipn_url", callbackBase+"/ipn")
	form.Set("product_name", productNames(order.Items))
	form.Set("product_category", "general")
	form.Set("product_profile", "general")
	form.Set("num_of_item", fmt.Sprintf("%d", len(order.Items)))
	form.Set("cus_name", order.Customer.Name)
	form.Set("cus_email", customerEmail(order.Customer))
	form.Set("cus_phone", order.Customer.Phone)
	form.Set("cus_add1", order.Customer.Address)
	form.Set("cus_country", "Bangladesh")
	form.Set("shipping_method", "NO")
	form.Set("ship_name", order.Customer.Name)
	form.Set("ship_add1", order.Customer.Address)
	form.Set("ship_country", "Bangladesh")
	form.Set("multi_card_name", multiCardName(method))
	form.Set("value_a", chunks[0])
	form.Set("value_b", chunks[1])
	form.Set("value_c", chunks[2])
	form.Set("value_d", chunks[3])
	return form
}

func validateInitiation(req InitiationRequest) error {
	var missing []string
	if req.Customer.Name == "" {
		missing = append(missing, "customer.name")
	}
	if req.Customer.Phone == "" {
		missing = append(missing, "customer.phone")
	}
	if req.Customer.Address == "" {
		missing = append(missing, "customer.address")
	}
	if len(req.Items) == 0 {
		missing = append(missing, "items")
	}
	if req.Total < 0 {
		missing = append(missing, "total")
	}
	if req.BusinessOrderID == "" {
		missing = append(missing, "businessOrderId")
	}
	if req.BackendOrderID == "" {
		missing = append(missing, "backendOrderId")
	}
	switch strings.ToLower(req.PaymentMethod) {
	case "bkash", "nagad", "card":
	default:
		missing = append(missing, "paymentMethod")
	}
	if len(missing) > 0 {
		return &models.ValidationError{Fields: missing}
	}
	return nil
}

func productNames(items []models.OrderItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return strings.Join(names, ", ")
}

func customerEmail(c models.Customer) string {
	if c.Email != "" {
		return c.Email
	}
	// The gateway insists on an email field even when the shopper gave none.
	return "noreply@example.com"
}

func multiCardName(method string) string {
	switch strings.ToLower(method) {
	case "card":
		return "visa,master,amex"
	default:
		return strings.ToLower(method)
	}
}
