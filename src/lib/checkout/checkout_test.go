package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntaSendStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/payment/status/", r.URL.Path)
		assert.Equal(t, "pk_test", r.Header.Get("X-IntaSend-Publishable-Key"))
		w.Write([]byte(`{"payment":{"status":"COMPLETE","value":"500.00","currency":"KES","mpesa_reference":"QWE12RTY34"}}`))
	}))
	defer srv.Close()

	p := NewIntaSend("pk_test", "sandbox", time.Second)
	p.BaseURL = srv.URL
	st, err := p.Status(context.Background(), "TRK-1")

	require.NoError(t, err)
	assert.True(t, st.Completed)
	assert.Equal(t, 500.0, st.Amount)
	assert.Equal(t, "QWE12RTY34", st.Reference)
}

func TestIntaSendPendingIsNotCompleted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"invoice":{"state":"PROCESSING","value":500}}`))
	}))
	defer srv.Close()

	p := NewIntaSend("pk_test", "sandbox", time.Second)
	p.BaseURL = srv.URL
	st, err := p.Status(context.Background(), "TRK-2")

	require.NoError(t, err)
	assert.False(t, st.Completed)
	assert.Equal(t, "TRK-2", st.Reference)
}

func TestFlutterwaveVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/transactions/12345/verify", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":"success","data":{"status":"successful","amount":1000,"currency":"KES","flw_ref":"FLW-MOCK"}}`))
	}))
	defer srv.Close()

	p := NewFlutterwave("sk_test", time.Second)
	p.BaseURL = srv.URL
	st, err := p.Status(context.Background(), "12345")

	require.NoError(t, err)
	assert.True(t, st.Completed)
	assert.Equal(t, "KES", st.Currency)
	assert.Equal(t, "FLW-MOCK", st.Reference)
}

func TestFlutterwaveHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewFlutterwave("sk_test", time.Second)
	p.BaseURL = srv.URL
	_, err := p.Status(context.Background(), "missing")
	assert.Error(t, err)
}

func TestUnconfiguredProviders(t *testing.T) {
	o, err := NewOmise("", "", time.Second)
	require.NoError(t, err)
	for _, p := range []Provider{NewIntaSend("", "", time.Second), NewFlutterwave("", time.Second), o} {
		_, err := p.Status(context.Background(), "x")
		assert.ErrorIs(t, err, ErrNotConfigured, p.Name())
	}
}

func stalledServer(t *testing.T, delay time.Duration) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
		}
		w.Write([]byte(`{"object":"charge","id":"chrg_test_1","status":"successful","amount":50000,"currency":"kes"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func omiseAgainst(t *testing.T, url string, timeout time.Duration) *Omise {
	o, err := NewOmise("pkey_test_5x", "skey_test_5x", timeout)
	require.NoError(t, err)
	for k := range o.client.Endpoints {
		o.client.Endpoints[k] = url
	}
	return o
}

func TestOmiseClientTimeout(t *testing.T) {
	srv := stalledServer(t, 3*time.Second)
	o := omiseAgainst(t, srv.URL, 200*time.Millisecond)

	start := time.Now()
	_, err := o.Status(context.Background(), "chrg_test_1")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOmiseHonoursContextDeadline(t *testing.T) {
	srv := stalledServer(t, 3*time.Second)
	o := omiseAgainst(t, srv.URL, 30*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := o.Status(ctx, "chrg_test_1")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
