package models

// Customer identifies who placed the order. Email is optional; everything
// else is needed to reconcile a payment back to a person.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Name      string  `json:"name"`
}

// OrderPayload is the order summary that rides through the payment gateway
// inside value_a..value_d and comes back on every callback. It lives only
// for the duration of a single payment attempt; nothing here is persisted
// on our side.
type OrderPayload struct {
	Customer       Customer    `json:"customer"`
	Items          []OrderItem `json:"items"`
	Total          float64     `json:"total"`
	Due            float64     `json:"due,omitempty"`
	DeliveryArea   string      `json:"delivery_area,omitempty"`
	Note           string      `json:"note"`
	DeliveryCharge float64     `json:"delivery_charge,omitempty"`

	AdditionalDiscountType   string  `json:"additional_discount_type,omitempty"` // "fixed"
	AdditionalDiscountAmount float64 `json:"additional_discount_amount,omitempty"`

	TransactionID   string `json:"transactionId"`   // must round-trip unchanged as tran_id
	BusinessOrderID string `json:"businessOrderId"` // human-readable, display only
	BackendOrderID  string `json:"backendOrderId"`  // order record in the backend store
}
