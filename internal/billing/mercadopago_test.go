package billing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cidadao-inteligente/api/internal/billing"
)

func TestNewMercadoPagoClient(t *testing.T) {
	t.Parallel()

	_, err := billing.NewMercadoPagoClient(billing.MercadoPagoConfig{})
	require.Error(t, err)

	client, err := billing.NewMercadoPagoClient(billing.MercadoPagoConfig{AccessToken: "token"})
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestMercadoPagoCreatePreapproval(t *testing.T) {
	t.Parallel()

	t.Run("sends the recurring payload", func(t *testing.T) {
		t.Parallel()

		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/preapproval", r.URL.Path)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":         "pre-42",
				"status":     "pending",
				"init_point": "https://mp.test/init/pre-42",
			})
		}))
		defer srv.Close()

		client, err := billing.NewMercadoPagoClient(billing.MercadoPagoConfig{
			AccessToken: "test-token",
			BaseURL:     srv.URL,
		})
		require.NoError(t, err)

		pre, err := client.CreatePreapproval(context.Background(), billing.PreapprovalRequest{
			Reason:            "Plano Pro • Cidadão Inteligente",
			PayerEmail:        "maria@example.com",
			BackURL:           "https://app.test/planos/sucesso?plan=pro",
			ExternalReference: "u-1:pro",
			Amount:            billing.Money{Amount: 2490, Currency: "BRL"},
			FrequencyMonths:   1,
		})
		require.NoError(t, err)
		assert.Equal(t, "pre-42", pre.ID)
		assert.Equal(t, "https://mp.test/init/pre-42", pre.InitPoint)

		assert.Equal(t, "Plano Pro • Cidadão Inteligente", got["reason"])
		assert.Equal(t, "maria@example.com", got["payer_email"])
		assert.Equal(t, "u-1:pro", got["external_reference"])
		assert.Equal(t, "pending", got["status"])

		recurring, ok := got["auto_recurring"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(1), recurring["frequency"])
		assert.Equal(t, "months", recurring["frequency_type"])
		assert.InDelta(t, 24.90, recurring["transaction_amount"], 0.0001)
		assert.Equal(t, "BRL", recurring["currency_id"])
	})

	t.Run("surfaces the processor error message", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "payer email is invalid"})
		}))
		defer srv.Close()

		client, err := billing.NewMercadoPagoClient(billing.MercadoPagoConfig{AccessToken: "t", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = client.CreatePreapproval(context.Background(), billing.PreapprovalRequest{
			Amount: billing.Money{Amount: 1290, Currency: "BRL"},
		})
		require.ErrorIs(t, err, billing.ErrPreapprovalCreate)
		assert.Contains(t, err.Error(), "payer email is invalid")
	})
}

func TestMercadoPagoGetPreapproval(t *testing.T) {
	t.Parallel()

	t.Run("fetches by id", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/preapproval/pre-7", r.URL.Path)

			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":                 "pre-7",
				"status":             "authorized",
				"external_reference": "u-1:basic",
				"auto_recurring": map[string]any{
					"next_payment_date": "2026-09-01T12:00:00Z",
				},
			})
		}))
		defer srv.Close()

		client, err := billing.NewMercadoPagoClient(billing.MercadoPagoConfig{AccessToken: "t", BaseURL: srv.URL})
		require.NoError(t, err)

		pre, err := client.GetPreapproval(context.Background(), "pre-7")
		require.NoError(t, err)
		assert.Equal(t, "pre-7", pre.ID)
		assert.Equal(t, "authorized", pre.Status)
		assert.Equal(t, "u-1:basic", pre.ExternalReference)
		require.NotNil(t, pre.NextPaymentAt)
		assert.Equal(t, 2026, pre.NextPaymentAt.Year())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "preapproval not found"})
		}))
		defer srv.Close()

		client, err := billing.NewMercadoPagoClient(billing.MercadoPagoConfig{AccessToken: "t", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = client.GetPreapproval(context.Background(), "missing")
		require.ErrorIs(t, err, billing.ErrPreapprovalFetch)
		assert.Contains(t, err.Error(), "preapproval not found")
	})
}
