package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bazarghor/payments-gobackend/internal/config"
	"github.com/bazarghor/payments-gobackend/internal/models"
)

// AnalyticsService emits server-side purchase events. Delivery is
// fire-and-forget: a lost event never affects the payment flow.
type AnalyticsService struct {
	cfg    config.Config
	client *http.Client
	logger *zap.Logger
}

func NewAnalyticsService(cfg config.Config, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
		logger: logger,
	}
}

// TrackPurchase posts a purchase event in the background. Skipped when no
// analytics endpoint is configured.
func (s *AnalyticsService) TrackPurchase(order models.OrderPayload, amount string) {
	if s.cfg.AnalyticsURL == "" {
		return
	}

	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"item_id":   item.ProductID,
			"item_name": item.Name,
			"price":     item.Price,
			"quantity":  item.Quantity,
		})
	}
	event := map[string]any{
		"event":          "purchase",
		"transaction_id": order.TransactionID,
		"order_id":       order.BusinessOrderID,
		"value":          amount,
		"currency":       "BDT",
		"items":          items,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		body, err := json.Marshal(event)
		if err != nil {
			s.logger.Warn("purchase event marshal failed", zap.Error(err))
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AnalyticsURL, bytes.NewReader(body))
		if err != nil {
			s.logger.Warn("purchase event request failed", zap.Error(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.logger.Warn("purchase event delivery failed",
				zap.String("tranId", order.TransactionID), zap.Error(err))
			return
		}
		resp.Body.Close()
	}()
}
