package paymentprovider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreatePreference(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		response   string
		wantErr    bool
	}{
		{
			name:       "successful create preference",
			statusCode: http.StatusCreated,
			response:   `{"id":"pref-123","init_point":"https://www.mercadopago.com.ar/checkout/v1/redirect?pref_id=pref-123"}`,
			wantErr:    false,
		},
		{
			name:       "provider returns error status",
			statusCode: http.StatusBadRequest,
			response:   `{"message":"invalid items"}`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "POST", r.Method)
				assert.Equal(t, "/checkout/preferences", r.URL.Path)
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

				var body CreatePreferenceRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Len(t, body.Items, 1)

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewClient("test-token")
			client.apiURL = server.URL

			got, err := client.CreatePreference(CreatePreferenceRequest{
				Items: []PreferenceItem{
					{Title: "Plan Premium", Quantity: 1, UnitPrice: 5000, CurrencyID: "ARS"},
				},
				BackURLs: BackURLs{
					Success: "https://example.com/?status=approved",
					Failure: "https://example.com/?status=failure",
					Pending: "https://example.com/?status=pending",
				},
				ExternalReference: `{"userId":"uid-1","planId":"premium"}`,
			})

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, "pref-123", got.ID)
				assert.NotEmpty(t, got.InitPoint)
			}
		})
	}
}

func TestClient_GetPayment(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		response   string
		wantStatus string
		wantErr    error
	}{
		{
			name:       "approved payment",
			statusCode: http.StatusOK,
			response:   `{"id":12345,"status":"approved","transaction_amount":5000,"external_reference":"{\"userId\":\"uid-1\",\"planId\":\"premium\"}"}`,
			wantStatus: "approved",
		},
		{
			name:       "payment not found",
			statusCode: http.StatusNotFound,
			response:   `{"message":"not found"}`,
			wantErr:    ErrPaymentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "GET", r.Method)
				assert.Equal(t, "/v1/payments/12345", r.URL.Path)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewClient("test-token")
			client.apiURL = server.URL

			got, err := client.GetPayment("12345")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, tt.wantStatus, got.Status)
				assert.InDelta(t, 5000.0, got.TransactionAmount, 0.001)

				var ref ExternalReference
				require.NoError(t, json.Unmarshal([]byte(got.ExternalReference), &ref))
				assert.Equal(t, "uid-1", ref.UserID)
				assert.Equal(t, "premium", ref.PlanID)
			}
		})
	}
}
