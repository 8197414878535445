package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

func testOrder() *order.Order {
	return &order.Order{
		ID:          42,
		OrderNumber: "ORD-20260830-00042",
		TotalAmount: 25000,
		Items: []order.OrderItem{
			{ProductID: 1, SKU: "SEED-001", Name: "Wireless Mouse", Price: 7999, Quantity: 2},
			{ProductID: 2, SKU: "SEED-002", Name: "Keyboard", Price: 9002, Quantity: 1},
		},
		ShippingAddress: order.ShippingAddress{
			FullName:   "Priya Sharma",
			Email:      "priya@example.com",
			Phone:      "9876543210",
			Address:    "12 MG Road",
			City:       "Bengaluru",
			PostalCode: "560001",
			Country:    "India",
		},
	}
}

func hostedGateway(baseURL string) *HostedCardPayment {
	return NewHostedCardPayment(config.GatewayConfig{
		BaseURL:    baseURL,
		KeyID:      "key_test",
		KeySecret:  "secret_test",
		SuccessURL: "https://shop.example.com/payment/success",
		CancelURL:  "https://shop.example.com/payment/cancel",
		Timeout:    2 * time.Second,
	})
}

func TestHostedCreateSession_Success(t *testing.T) {
	var gotAuthUser, gotAuthPass string
	var gotReq sessionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(sessionResponse{
			ID:          "cs_abc",
			Status:      "created",
			CheckoutURL: "https://pay.example.com/cs_abc",
		})
	}))
	defer srv.Close()

	outcome, err := hostedGateway(srv.URL).CreateSession(context.Background(), testOrder())

	require.NoError(t, err)
	assert.Equal(t, "cs_abc", outcome.ExternalID)
	assert.Equal(t, "https://pay.example.com/cs_abc", outcome.PaymentURL)
	assert.True(t, outcome.RequiresPay)

	assert.Equal(t, "key_test", gotAuthUser)
	assert.Equal(t, "secret_test", gotAuthPass)
	assert.Equal(t, int64(25000), gotReq.Amount)
	assert.Equal(t, "ORD-20260830-00042", gotReq.Receipt)

	// The provider renders the checkout page from the session, so line
	// items and the shipping block must travel with it.
	require.Len(t, gotReq.Items, 2)
	assert.Equal(t, sessionItem{Name: "Wireless Mouse", SKU: "SEED-001", Price: 7999, Quantity: 2}, gotReq.Items[0])
	assert.Equal(t, sessionItem{Name: "Keyboard", SKU: "SEED-002", Price: 9002, Quantity: 1}, gotReq.Items[1])
	assert.Equal(t, sessionShipping{
		Name:       "Priya Sharma",
		Address:    "12 MG Road",
		City:       "Bengaluru",
		PostalCode: "560001",
		Country:    "India",
	}, gotReq.Shipping)
}

func TestHostedCreateSession_Declined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"code":        "card_declined",
				"description": "insufficient funds",
			},
		})
	}))
	defer srv.Close()

	_, err := hostedGateway(srv.URL).CreateSession(context.Background(), testOrder())

	var declined *DeclinedError
	require.True(t, errors.As(err, &declined))
	assert.Equal(t, "card_declined", declined.Code)
	assert.NotErrorIs(t, err, ErrGatewayUnreachable)
}

func TestHostedCreateSession_ServerErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := hostedGateway(srv.URL).CreateSession(context.Background(), testOrder())
	assert.ErrorIs(t, err, ErrGatewayUnreachable)
}

func TestHostedCreateSession_TimeoutIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	gw := NewHostedCardPayment(config.GatewayConfig{
		BaseURL:   srv.URL,
		KeyID:     "key_test",
		KeySecret: "secret_test",
		Timeout:   50 * time.Millisecond,
	})

	_, err := gw.CreateSession(context.Background(), testOrder())
	assert.ErrorIs(t, err, ErrGatewayUnreachable)
}

func TestHostedCreateSession_ConnectionRefusedIsUnreachable(t *testing.T) {
	// A server that is already closed refuses connections.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := hostedGateway(srv.URL).CreateSession(context.Background(), testOrder())
	assert.ErrorIs(t, err, ErrGatewayUnreachable)
}

func TestHostedRefund_Success(t *testing.T) {
	var gotReq refundRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/refunds", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(refundResponse{ID: "rf_123", Status: "succeeded"})
	}))
	defer srv.Close()

	outcome, err := hostedGateway(srv.URL).Refund(context.Background(), testOrder(), 25000)

	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "rf_123", outcome.RefundID)
	assert.Equal(t, int64(25000), gotReq.Amount)
	assert.NotEmpty(t, gotReq.IdempotencyKey)
}

func TestHostedRefund_PendingIsNotSucceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(refundResponse{ID: "rf_456", Status: "pending"})
	}))
	defer srv.Close()

	outcome, err := hostedGateway(srv.URL).Refund(context.Background(), testOrder(), 25000)

	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, "pending", outcome.Status)
}

func TestCashOnDelivery(t *testing.T) {
	gw := NewCashOnDelivery()

	outcome, err := gw.CreateSession(context.Background(), testOrder())
	require.NoError(t, err)
	assert.False(t, outcome.RequiresPay)
	assert.Empty(t, outcome.PaymentURL)

	refund, err := gw.Refund(context.Background(), testOrder(), 25000)
	require.NoError(t, err)
	assert.True(t, refund.Succeeded)
}
