package mpesa

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	SuccessCode    = "INS-0"
	sandboxURL     = "https://openapi.m-pesa.com/sandbox/ipg/v2/safaricomKEN"
	productionURL  = "https://openapi.m-pesa.com/production/ipg/v2/safaricomKEN"
	country        = "KEN"
	currency       = "KES"
	defaultTimeout = 30 * time.Second
)

var ErrNotConfigured = errors.New("mpesa client is not configured")

type Client struct {
	BaseURL             string
	APIKey              string
	PublicKey           string
	ServiceProviderCode string
	HTTP                *http.Client
}

func New(apiKey, publicKey, serviceProviderCode, env string, timeout time.Duration) *Client {
	base := sandboxURL
	if env == "production" {
		base = productionURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:             base,
		APIKey:              apiKey,
		PublicKey:           publicKey,
		ServiceProviderCode: serviceProviderCode,
		HTTP:                &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.APIKey != "" && c.PublicKey != ""
}

type Response struct {
	Code              string
	Description       string
	ConversationID    string
	TransactionID     string
	TransactionStatus string
	Amount            float64
	Raw               string
}

func (r *Response) OK() bool {
	return r.Code == SuccessCode
}

type C2BInput struct {
	Amount         float64
	MSISDN         string
	ConversationID string
	Reference      string
	Description    string
}

// bearerToken encrypts the API key with the provider's RSA public key.
func (c *Client) bearerToken() (string, error) {
	key := strings.TrimSpace(c.PublicKey)
	if !strings.Contains(key, "BEGIN PUBLIC KEY") {
		key = "-----BEGIN PUBLIC KEY-----\n" + key + "\n-----END PUBLIC KEY-----"
	}
	block, _ := pem.Decode([]byte(key))
	if block == nil {
		return "", errors.New("invalid mpesa public key")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("parse mpesa public key: %w", err)
	}
	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return "", errors.New("mpesa public key is not RSA")
	}
	encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, rsaKey, []byte(c.APIKey))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

func (c *Client) do(ctx context.Context, method, path string, body map[string]any) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	token, err := c.bearerToken()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Origin", "*")
	if method == http.MethodGet {
		q := req.URL.Query()
		for k, v := range body {
			q.Set(k, fmt.Sprint(v))
		}
		req.URL.RawQuery = q.Encode()
		req.Body = http.NoBody
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	sraw := string(raw)
	if !gjson.Valid(sraw) {
		return nil, fmt.Errorf("mpesa %s returned %d with a non-json body", path, res.StatusCode)
	}
	out := &Response{
		Code:              gjson.Get(sraw, "output_ResponseCode").String(),
		Description:       gjson.Get(sraw, "output_ResponseDesc").String(),
		ConversationID:    gjson.Get(sraw, "output_ConversationID").String(),
		TransactionID:     gjson.Get(sraw, "output_TransactionID").String(),
		TransactionStatus: gjson.Get(sraw, "output_ResponseTransactionStatus").String(),
		Amount:            gjson.Get(sraw, "output_Amount").Float(),
		Raw:               sraw,
	}
	log.Printf("[MPESA] %s %s -> %d %s %s\n", method, path, res.StatusCode, out.Code, out.Description)
	return out, nil
}

// C2BPayment starts a single-stage customer-to-business push payment.
func (c *Client) C2BPayment(ctx context.Context, in C2BInput) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/c2bPayment/singleStage/", map[string]any{
		"input_Amount":                   fmt.Sprintf("%.0f", in.Amount),
		"input_Country":                  country,
		"input_Currency":                 currency,
		"input_CustomerMSISDN":           in.MSISDN,
		"input_ServiceProviderCode":      c.ServiceProviderCode,
		"input_ThirdPartyConversationID": in.ConversationID,
		"input_TransactionReference":     in.Reference,
		"input_PurchasedItemsDesc":       in.Description,
	})
}

// QueryTransactionStatus looks up a transaction by receipt code or reference.
func (c *Client) QueryTransactionStatus(ctx context.Context, reference, conversationID string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/queryTransactionStatus/", map[string]any{
		"input_QueryReference":           reference,
		"input_ServiceProviderCode":      c.ServiceProviderCode,
		"input_ThirdPartyConversationID": conversationID,
		"input_Country":                  country,
	})
}
