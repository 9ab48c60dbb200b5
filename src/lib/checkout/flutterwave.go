package checkout

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

type Flutterwave struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

func NewFlutterwave(secretKey string, timeout time.Duration) *Flutterwave {
	return &Flutterwave{BaseURL: "https://api.flutterwave.com", SecretKey: secretKey, HTTP: &http.Client{Timeout: timeout}}
}

func (f *Flutterwave) Name() string { return "flutterwave" }

func (f *Flutterwave) Status(ctx context.Context, transactionID string) (*Status, error) {
	if f.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	endpoint := fmt.Sprintf("%s/v3/transactions/%s/verify", f.BaseURL, url.PathEscape(transactionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+f.SecretKey)
	res, err := f.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("flutterwave verify returned %d", res.StatusCode)
	}
	data := gjson.Get(string(raw), "data")
	ref := data.Get("flw_ref").String()
	if ref == "" {
		ref = transactionID
	}
	return &Status{
		Completed: strings.EqualFold(data.Get("status").String(), "successful"),
		Amount:    data.Get("amount").Float(),
		Currency:  data.Get("currency").String(),
		Reference: ref,
		Raw:       string(raw),
	}, nil
}
