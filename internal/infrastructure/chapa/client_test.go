package chapa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rental-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_SendsCheckoutAndReturnsURL(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"checkout_url":"https://checkout.chapa.co/abc"}}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, "sk_test", 5*time.Second)
	checkout, err := c.Initialize(context.Background(), InitializeRequest{
		Amount:      1500,
		Currency:    "ETB",
		TxRef:       "FEATURED_p1_1_abcd",
		Customer:    Customer{Email: "l@x.com"},
		CallbackURL: "http://localhost/v1/payments/callback",
		ReturnURL:   "http://localhost/v1/payments/return?tx_ref=FEATURED_p1_1_abcd",
		Title:       "FeaturedProperty",
		Description: "Property listing upgrade",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.chapa.co/abc", checkout)
	assert.Equal(t, "1500", got["amount"])
	assert.Equal(t, "ETB", got["currency"])
	assert.Equal(t, "User", got["first_name"])
	assert.Equal(t, "Customer", got["last_name"])
	assert.Equal(t, "FEATURED_p1_1_abcd", got["tx_ref"])
}

func TestInitialize_GatewayErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"failed","message":"invalid currency"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "sk", time.Second).Initialize(context.Background(), InitializeRequest{Amount: 1})
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestInitialize_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "sk", 20*time.Millisecond).Initialize(context.Background(), InitializeRequest{Amount: 1})
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestVerify(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"both success", `{"status":"success","data":{"status":"success"}}`, true},
		{"data pending", `{"status":"success","data":{"status":"pending"}}`, false},
		{"envelope failed", `{"status":"failed","data":{"status":"success"}}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/transaction/verify/tx1", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			ok, err := newClient(srv.URL, "sk", time.Second).Verify(context.Background(), "tx1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestVerify_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, "sk", time.Second).Verify(context.Background(), "tx1")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}
