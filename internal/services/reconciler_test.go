package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bazarghor/payments-gobackend/internal/config"
	"github.com/bazarghor/payments-gobackend/internal/models"
	"github.com/bazarghor/payments-gobackend/internal/payload"
)

type fakeBackend struct {
	server   *httptest.Server
	hits     atomic.Int64
	lastPath atomic.Value
	lastBody atomic.Value
	status   int
}

func newFakeBackend(status int) *fakeBackend {
	b := &fakeBackend{status: status}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		b.lastPath.Store(r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		b.lastBody.Store(string(body))
		w.WriteHeader(b.status)
	}))
	return b
}

func testOrder() models.OrderPayload {
	return models.OrderPayload{
		Customer: models.Customer{
			Name:    "Karima Begum",
			Phone:   "01898765432",
			Address: "Agrabad, Chattogram",
		},
		Items: []models.OrderItem{
			{ProductID: "p-10", Quantity: 1, Price: 700, Name: "Saree"},
			{ProductID: "p-11", Quantity: 3, Price: 100, Name: "Scarf"},
		},
		Total:                    1000,
		Due:                      1000,
		DeliveryCharge:           60,
		AdditionalDiscountType:   "fixed",
		AdditionalDiscountAmount: 50,
		TransactionID:            "T1",
		BusinessOrderID:          "ORD-2002",
		BackendOrderID:           "backend-order-9",
	}
}

func callbackForm(t *testing.T, order models.OrderPayload, overrides map[string]string) url.Values {
	t.Helper()
	encoded, err := payload.Encode(order)
	require.NoError(t, err)
	chunks := payload.Split(encoded)

	form := url.Values{}
	form.Set("tran_id", order.TransactionID)
	form.Set("val_id", "VAL-123")
	form.Set("amount", "1000.00")
	form.Set("currency", "BDT")
	form.Set("status", "VALID")
	form.Set("bank_tran_id", "BANK-1")
	form.Set("card_type", "BKASH-BKash")
	form.Set("value_a", chunks[0])
	form.Set("value_b", chunks[1])
	form.Set("value_c", chunks[2])
	form.Set("value_d", chunks[3])
	for k, v := range overrides {
		if v == "" {
			form.Del(k)
		} else {
			form.Set(k, v)
		}
	}
	return form
}

func newTestReconciler(backendURL string) *ReconcilerService {
	cfg := config.Config{
		APIBaseURL: backendURL,
		OwnerID:    "owner-1",
		BusinessID: "biz-1",
		SiteURL:    "https://shop.example.com",
	}
	logger := zap.NewNop()
	return NewReconcilerService(cfg, NewOrderService(cfg, logger), NewAnalyticsService(cfg, logger), logger)
}

func TestSuccessCallbackConfirmsPaymentAndRedirects(t *testing.T) {
	backend := newFakeBackend(http.StatusOK)
	defer backend.server.Close()
	reconciler := newTestReconciler(backend.server.URL)

	order := testOrder()
	outcome := reconciler.Reconcile(context.Background(), CallbackSuccess, callbackForm(t, order, nil))

	assert.Equal(t, "success", outcome.Status)
	assert.Empty(t, outcome.ErrorMessage)
	require.EqualValues(t, 1, backend.hits.Load())
	assert.Equal(t, "/public/owner-1/biz-1/backend-order-9/T1/online-order-payment-update", backend.lastPath.Load())

	var body struct {
		PaymentStatus  string            `json:"payment_status"`
		PaymentDetails map[string]string `json:"payment_details"`
	}
	require.NoError(t, json.Unmarshal([]byte(backend.lastBody.Load().(string)), &body))
	assert.Equal(t, "completed", body.PaymentStatus)
	assert.Equal(t, "VAL-123", body.PaymentDetails["val_id"])
	assert.Equal(t, "1000.00", body.PaymentDetails["amount"])

	redirect, err := url.Parse(outcome.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "shop.example.com", redirect.Host)
	assert.Equal(t, "/orderstatus", redirect.Path)

	q := redirect.Query()
	assert.Equal(t, "success", q.Get("status"))
	assert.Equal(t, "T1", q.Get("tranId"))
	assert.Equal(t, "ORD-2002", q.Get("orderId"))
	assert.Equal(t, "backend-order-9", q.Get("_id"))
	assert.Equal(t, "Karima Begum", q.Get("customerName"))
	assert.Equal(t, "1000", q.Get("total"))
	assert.Equal(t, "60", q.Get("deliveryCharge"))
	assert.Equal(t, "50", q.Get("discountAmount"))
	assert.Equal(t, "2", q.Get("itemCount"))
	for i, item := range order.Items {
		assert.Equal(t, item.Name, q.Get(fmt.Sprintf("itemName%d", i)))
		assert.Equal(t, fmt.Sprintf("%d", item.Quantity), q.Get(fmt.Sprintf("itemQty%d", i)))
	}
	assert.Equal(t, "700", q.Get("itemPrice0"))
	assert.Equal(t, "100", q.Get("itemPrice1"))
}

func TestSuccessCallbackTransactionIDMismatchIsFatal(t *testing.T) {
	backend := newFakeBackend(http.StatusOK)
	defer backend.server.Close()
	reconciler := newTestReconciler(backend.server.URL)

	order := testOrder()
	order.TransactionID = "T2"
	form := callbackForm(t, order, map[string]string{"tran_id": "T1"})

	outcome := reconciler.Reconcile(context.Background(), CallbackSuccess, form)

	assert.Equal(t, "fail", outcome.Status)
	assert.Contains(t, outcome.ErrorMessage, "mismatch")
	assert.EqualValues(t, 0, backend.hits.Load(), "backend update must not be attempted")
	assert.NotContains(t, outcome.RedirectURL, "orderId=")
}

func TestSuccessCallbackInvalidStatusSkipsDecode(t *testing.T) {
	backend := newFakeBackend(http.StatusOK)
	defer backend.server.Close()
	reconciler := newTestReconciler(backend.server.URL)

	form := callbackForm(t, testOrder(), map[string]string{"status": "INVALID"})
	outcome := reconciler.Reconcile(context.Background(), CallbackSuccess, form)

	assert.Equal(t, "fail", outcome.Status)
	assert.Equal(t, "Payment validation failed", outcome.ErrorMessage)
	assert.Nil(t, outcome.Order)
	assert.EqualValues(t, 0, backend.hits.Load())
}

func TestCancelCallbackMissingTranID(t *testing.T) {
	backend := newFakeBackend(http.StatusOK)
	defer backend.server.Close()
	reconciler := newTestReconciler(backend.server.URL)

	form := callbackForm(t, testOrder(), map[string]string{"tran_id": ""})
	outcome := reconciler.Reconcile(context.Background(), CallbackCancel, form)

	assert.Equal(t, "fail", outcome.Status)
	assert.Equal(t, "Invalid payment response", outcome.ErrorMessage)
	assert.NotContains(t, outcome.RedirectURL, "orderId=")
	assert.NotContains(t, outcome.RedirectURL, "itemName0=")
}

func TestFailCallbackMismatchIsWarningOnly(t *testing.T) {
	backend := newFakeBackend(http.StatusOK)
	defer backend.server.Close()
	reconciler := newTestReconciler(backend.server.URL)

	order := testOrder()
	order.TransactionID = "T2"
	form := callbackForm(t, order, map[string]string{
		"tran_id": "T1",
		"error":   "Insufficient balance",
	})

	outcome := reconciler.Reconcile(context.Background(), CallbackFail, form)

	assert.Equal(t, "fail", outcome.Status)
	assert.Equal(t, "Insufficient balance", outcome.ErrorMessage)
	assert.Equal(t, "T1", outcome.TranID, "gateway-reported tran_id wins")
	require.NotNil(t, outcome.Order)
	assert.Contains(t, outcome.RedirectURL, "orderId=ORD-2002")
	assert.EqualValues(t, 0, backend.hits.Load())
}

func TestFailCallbackWithUndecodablePayload(t *testing.T) {
	backend := newFakeBackend(http.StatusOK)
	defer backend.server.Close()
	reconciler := newTestReconciler(backend.server.URL)

	form := callbackForm(t, testOrder(), map[string]string{
		"value_a": "not base64 at all",
		"value_b": "",
		"value_c": "",
		"value_d": "",
	})
	outcome := reconciler.Reconcile(context.Background(), CallbackFail, form)

	assert.Equal(t, "fail", outcome.Status)
	assert.Equal(t, "Payment failed", outcome.ErrorMessage)
	assert.Nil(t, outcome.Order)
	assert.Equal(t, "T1", outcome.TranID)
}

func TestSuccessCallbackBackendRejectionIsFatal(t *testing.T) {
	backend := newFakeBackend(http.StatusInternalServerError)
	defer backend.server.Close()
	reconciler := newTestReconciler(backend.server.URL)

	outcome := reconciler.Reconcile(context.Background(), CallbackSuccess, callbackForm(t, testOrder(), nil))

	assert.Equal(t, "fail", outcome.Status)
	assert.Equal(t, "Failed to confirm payment", outcome.ErrorMessage)
	assert.EqualValues(t, 1, backend.hits.Load())
}

func TestSuccessCallbackWithoutPayloadContext(t *testing.T) {
	backend := newFakeBackend(http.StatusOK)
	defer backend.server.Close()
	reconciler := newTestReconciler(backend.server.URL)

	order := testOrder()
	order.BackendOrderID = ""
	outcome := reconciler.Reconcile(context.Background(), CallbackSuccess, callbackForm(t, order, nil))

	assert.Equal(t, "fail", outcome.Status)
	assert.Equal(t, "Order context unavailable", outcome.ErrorMessage)
	assert.EqualValues(t, 0, backend.hits.Load())
}
