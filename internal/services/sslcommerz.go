package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bazarghor/payments-gobackend/internal/config"
	"github.com/bazarghor/payments-gobackend/internal/models"
)

type SSLCommerzService struct {
	cfg    config.Config
	client *http.Client
	logger *zap.Logger
}

// GatewayOption is one wallet/bank entry from the gateway's session
// response option list.
type GatewayOption struct {
	GW                 string `json:"gw"`
	RedirectGatewayURL string `json:"redirectGatewayURL"`
}

// SessionResponse is the subset of the gateway's session-create response
// the initiation flow reads.
type SessionResponse struct {
	Status           string          `json:"status"`
	FailedReason     string          `json:"failedreason"`
	SessionKey       string          `json:"sessionkey"`
	DirectPaymentURL string          `json:"directPaymentURL"`
	Desc             []GatewayOption `json:"desc"`
}

func NewSSLCommerzService(cfg config.Config, logger *zap.Logger) *SSLCommerzService {
	return &SSLCommerzService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// CreateSession posts the form-encoded session request to the gateway and
// decodes its response. A non-SUCCESS status comes back as *GatewayError
// carrying the gateway's reported reason.
func (s *SSLCommerzService) CreateSession(ctx context.Context, form url.Values) (*SessionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GatewayAPIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &models.GatewayError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Error("gateway session request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, &models.GatewayError{Reason: "gateway returned HTTP " + resp.Status}
	}

	var session SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, &models.GatewayError{Reason: "unreadable gateway response: " + err.Error()}
	}
	if !strings.EqualFold(session.Status, "SUCCESS") {
		reason := session.FailedReason
		if reason == "" {
			reason = "status " + session.Status
		}
		return nil, &models.GatewayError{Reason: reason}
	}
	return &session, nil
}

// RedirectURLFor picks the redirect target for the chosen payment method
// from a session response. Card payments use the gateway's direct URL;
// wallet methods are matched case-insensitively against the option list.
func (s *SSLCommerzService) RedirectURLFor(session *SessionResponse, method string) (string, error) {
	if strings.EqualFold(method, "card") {
		if session.DirectPaymentURL == "" {
			return "", &models.MethodUnavailableError{Method: method}
		}
		return session.DirectPaymentURL, nil
	}
	for _, opt := range session.Desc {
		if strings.EqualFold(opt.GW, method) && opt.RedirectGatewayURL != "" {
			return opt.RedirectGatewayURL, nil
		}
	}
	return "", &models.MethodUnavailableError{Method: method}
}
