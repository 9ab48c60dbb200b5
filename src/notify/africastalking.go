package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	atLiveURL    = "https://api.africastalking.com/version1/messaging"
	atSandboxURL = "https://api.sandbox.africastalking.com/version1/messaging"
)

// AfricasTalking sends SMS through the Africa's Talking bulk messaging API.
type AfricasTalking struct {
	APIKey   string
	Username string
	SenderID string
	BaseURL  string
	HTTP     *http.Client
}

func NewAfricasTalking(apiKey, username, senderID string, timeout time.Duration) *AfricasTalking {
	base := atLiveURL
	if username == "" || username == "sandbox" {
		base = atSandboxURL
	}
	return &AfricasTalking{
		APIKey:   apiKey,
		Username: username,
		SenderID: senderID,
		BaseURL:  base,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

func (a *AfricasTalking) Configured() bool {
	return a.APIKey != "" && a.APIKey != "YOUR_AFRICAS_TALKING_API_KEY"
}

// SendSMS delivers message to one E.164 number. Digits-only numbers get a leading +.
func (a *AfricasTalking) SendSMS(ctx context.Context, to, message string) error {
	if !strings.HasPrefix(to, "+") {
		to = "+" + to
	}
	form := url.Values{}
	form.Set("username", a.Username)
	form.Set("to", to)
	form.Set("message", message)
	if a.SenderID != "" {
		form.Set("from", a.SenderID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("apiKey", a.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := a.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("africastalking: http %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	rcpt := gjson.GetBytes(body, "SMSMessageData.Recipients.0")
	if !rcpt.Exists() {
		return fmt.Errorf("africastalking: %s", gjson.GetBytes(body, "SMSMessageData.Message").String())
	}
	// 100 Processed, 101 Sent, 102 Queued
	if code := rcpt.Get("statusCode").Int(); code < 100 || code > 102 {
		return fmt.Errorf("africastalking: %s", rcpt.Get("status").String())
	}
	return nil
}
