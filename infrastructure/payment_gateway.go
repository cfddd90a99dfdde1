package infrastructure

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"job-board/domain"
)

// PaymentGateway is a client for a hosted-checkout gateway that issues
// tokens over a form-encoded POST and notifies results through a signed
// server-to-server callback.
type PaymentGateway struct {
	client      *resty.Client
	merchantID  string
	merchantKey string
	salt        string
	tokenURL    string
	checkoutURL string
	testMode    bool
}

type PaymentGatewayConfig struct {
	MerchantID  string
	MerchantKey string
	Salt        string
	TokenURL    string
	CheckoutURL string
	TestMode    bool
}

func NewPaymentGateway(cfg PaymentGatewayConfig) *PaymentGateway {
	client := resty.New().
		SetTimeout(20 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &PaymentGateway{
		client:      client,
		merchantID:  cfg.MerchantID,
		merchantKey: cfg.MerchantKey,
		salt:        cfg.Salt,
		tokenURL:    cfg.TokenURL,
		checkoutURL: cfg.CheckoutURL,
		testMode:    cfg.TestMode,
	}
}

func (g *PaymentGateway) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(g.merchantKey))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (g *PaymentGateway) testFlag() string {
	if g.testMode {
		return "1"
	}
	return "0"
}

// RequestToken asks the gateway for a checkout token.
func (g *PaymentGateway) RequestToken(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	if g.merchantID == "" || g.merchantKey == "" {
		return "", errors.New("payment gateway is not configured")
	}

	amount := strconv.FormatInt(req.Amount, 10)
	signature := g.sign(g.merchantID + req.ClientIP + req.OrderID + req.Email + amount + req.Currency + g.testFlag() + g.salt)

	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"merchant_id":    g.merchantID,
			"user_ip":        req.ClientIP,
			"merchant_oid":   req.OrderID,
			"email":          req.Email,
			"payment_amount": amount,
			"currency":       req.Currency,
			"user_basket":    req.Item,
			"test_mode":      g.testFlag(),
			"paytr_token":    signature,
		}).
		Post(g.tokenURL)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	body := resp.Body()
	if status := gjson.GetBytes(body, "status").String(); status != "success" {
		return "", fmt.Errorf("gateway refused token: %s", gjson.GetBytes(body, "reason").String())
	}
	token := gjson.GetBytes(body, "token").String()
	if token == "" {
		return "", errors.New("gateway returned an empty token")
	}
	return token, nil
}

// CheckoutURL is where the buyer is redirected to pay.
func (g *PaymentGateway) CheckoutURL(token string) string {
	return g.checkoutURL + token
}

// VerifyCallback checks the callback signature.
func (g *PaymentGateway) VerifyCallback(cb domain.PaymentCallback) bool {
	if g.merchantKey == "" || cb.Hash == "" {
		return false
	}
	expected := g.sign(cb.OrderID + g.salt + cb.Status + cb.TotalAmount)
	return hmac.Equal([]byte(expected), []byte(cb.Hash))
}

// SignCallback produces the hash the gateway would send for cb.
func (g *PaymentGateway) SignCallback(cb domain.PaymentCallback) string {
	return g.sign(cb.OrderID + g.salt + cb.Status + cb.TotalAmount)
}
