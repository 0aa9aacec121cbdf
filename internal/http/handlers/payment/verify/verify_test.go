package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/guia-comercial/internal/http/middlewarectx"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// Мок сервиса с методом Verify
type PaymentServiceMock struct {
	mock.Mock
}

func (m *PaymentServiceMock) Verify(ctx context.Context, paymentID, requesterUID string) (*models.VerificationResult, error) {
	args := m.Called(ctx, paymentID, requesterUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestVerifyHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(PaymentServiceMock)
	logger := newNoopLogger()

	handler := New(logger, serviceMock)

	tests := []struct {
		name           string
		requestBody    interface{}
		userUID        string
		mockResult     *models.VerificationResult
		mockErr        error
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:           "approved payment",
			requestBody:    models.DummyVerify{PaymentID: "pay-1"},
			userUID:        "uid-1",
			mockResult:     &models.VerificationResult{Success: true, PlanID: "premium", UserUID: "uid-1"},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "rejected payment still returns result",
			requestBody:    models.DummyVerify{PaymentID: "pay-2"},
			userUID:        "uid-1",
			mockResult:     &models.VerificationResult{Success: false, Error: "payment not approved"},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "missing user in context",
			requestBody:    models.DummyVerify{PaymentID: "pay-1"},
			userUID:        "",
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing payment_id",
			requestBody:    models.DummyVerify{},
			userUID:        "uid-1",
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "provider error",
			requestBody:    models.DummyVerify{PaymentID: "pay-1"},
			userUID:        "uid-1",
			mockErr:        errors.New("provider unavailable"),
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.mockResult != nil || tt.mockErr != nil {
				serviceMock.On("Verify", mock.Anything, mock.Anything, tt.userUID).
					Return(tt.mockResult, tt.mockErr).Once()
			}

			bodyBytes, err := json.Marshal(tt.requestBody)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/payments/verify", bytes.NewReader(bodyBytes))
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp["status"])
			serviceMock.AssertExpectations(t)
		})
	}
}
