package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type IntaSend struct {
	BaseURL        string
	PublishableKey string
	HTTP           *http.Client
}

func NewIntaSend(publishableKey, env string, timeout time.Duration) *IntaSend {
	base := "https://sandbox.intasend.com"
	if env == "production" {
		base = "https://payment.intasend.com"
	}
	return &IntaSend{BaseURL: base, PublishableKey: publishableKey, HTTP: &http.Client{Timeout: timeout}}
}

func (i *IntaSend) Name() string { return "intasend" }

func (i *IntaSend) Status(ctx context.Context, trackingID string) (*Status, error) {
	if i.PublishableKey == "" {
		return nil, ErrNotConfigured
	}
	body, _ := json.Marshal(map[string]string{"tracking_id": trackingID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.BaseURL+"/api/v1/payment/status/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-IntaSend-Publishable-Key", i.PublishableKey)
	res, err := i.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("intasend status returned %d", res.StatusCode)
	}
	sraw := string(raw)
	payment := gjson.Get(sraw, "payment")
	if !payment.Exists() {
		payment = gjson.Get(sraw, "invoice")
	}
	ref := payment.Get("mpesa_reference").String()
	if ref == "" {
		ref = trackingID
	}
	state := payment.Get("status").String()
	if state == "" {
		state = payment.Get("state").String()
	}
	return &Status{
		Completed: strings.EqualFold(state, "COMPLETE"),
		Amount:    payment.Get("value").Float(),
		Currency:  payment.Get("currency").String(),
		Reference: ref,
		Raw:       sraw,
	}, nil
}
