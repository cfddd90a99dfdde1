package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-board/domain"
)

func newTestGateway(tokenURL string) *PaymentGateway {
	return NewPaymentGateway(PaymentGatewayConfig{
		MerchantID:  "m-1",
		MerchantKey: "secret",
		Salt:        "salt",
		TokenURL:    tokenURL,
		CheckoutURL: "https://pay.example/checkout/",
		TestMode:    true,
	})
}

func TestPaymentGateway_RequestToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "m-1", r.PostForm.Get("merchant_id"))
		assert.Equal(t, "order-1", r.PostForm.Get("merchant_oid"))
		assert.Equal(t, "9900", r.PostForm.Get("payment_amount"))
		assert.NotEmpty(t, r.PostForm.Get("paytr_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","token":"tok-123"}`))
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL)
	token, err := g.RequestToken(context.Background(), domain.CheckoutRequest{
		OrderID: "order-1", Email: "a@b.test", ClientIP: "1.2.3.4", Amount: 9900, Currency: "TRY", Item: "week",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "https://pay.example/checkout/tok-123", g.CheckoutURL(token))
}

func TestPaymentGateway_RequestTokenRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","reason":"bad hash"}`))
	}))
	defer srv.Close()

	_, err := newTestGateway(srv.URL).RequestToken(context.Background(), domain.CheckoutRequest{OrderID: "o"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad hash")
}

func TestPaymentGateway_VerifyCallback(t *testing.T) {
	g := newTestGateway("")
	cb := domain.PaymentCallback{OrderID: "order-1", Status: "success", TotalAmount: "9900"}
	cb.Hash = g.SignCallback(cb)
	assert.True(t, g.VerifyCallback(cb))

	tampered := cb
	tampered.TotalAmount = "1"
	assert.False(t, g.VerifyCallback(tampered))

	cb.Hash = ""
	assert.False(t, g.VerifyCallback(cb))
}
