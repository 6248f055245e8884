package payload

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/bazarghor/payments-gobackend/internal/models"
)

// Encode serializes the order payload to canonical JSON and base64-encodes
// it for transport through the gateway. Payloads whose encoding would not
// fit the 4x255 transport fail with PayloadTooLargeError rather than being
// silently truncated downstream.
func Encode(order models.OrderPayload) (string, error) {
	raw, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("marshal order payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	if len(encoded) > MaxEncodedLen {
		return "", &models.PayloadTooLargeError{Size: len(encoded)}
	}
	return encoded, nil
}

// Decode reverses Encode and structurally validates the result: customer
// present, items non-empty, total a non-negative number, transaction and
// business order ids present. requireBackendID additionally demands the
// backend order id — the success callback needs it to confirm payment,
// while fail/cancel callbacks tolerate its absence.
//
// Any failure is reported as *models.DecodeError, which callers treat as
// "order context unavailable" rather than a hard stop.
func Decode(raw string, requireBackendID bool) (models.OrderPayload, error) {
	var order models.OrderPayload

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return order, &models.DecodeError{Cause: fmt.Errorf("base64: %w", err)}
	}
	if err := json.Unmarshal(data, &order); err != nil {
		return order, &models.DecodeError{Cause: fmt.Errorf("json: %w", err)}
	}
	if err := validate(order, requireBackendID); err != nil {
		return order, &models.DecodeError{Cause: err}
	}
	return order, nil
}

func validate(order models.OrderPayload, requireBackendID bool) error {
	if order.Customer.Name == "" && order.Customer.Phone == "" {
		return errors.New("customer missing")
	}
	if len(order.Items) == 0 {
		return errors.New("items empty")
	}
	if math.IsNaN(order.Total) || order.Total < 0 {
		return errors.New("total is not a non-negative number")
	}
	if order.TransactionID == "" {
		return errors.New("transactionId missing")
	}
	if order.BusinessOrderID == "" {
		return errors.New("businessOrderId missing")
	}
	if requireBackendID && order.BackendOrderID == "" {
		return errors.New("backendOrderId missing")
	}
	return nil
}
