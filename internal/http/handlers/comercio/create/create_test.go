package create

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
	comercioservice "github.com/magabrotheeeer/guia-comercial/internal/services/comercio"
)

// Мок сервиса с методом Create
type ComercioServiceMock struct {
	mock.Mock
}

func (m *ComercioServiceMock) Create(ctx context.Context, usuarioUID string, req models.DummyComercio) (string, error) {
	args := m.Called(ctx, usuarioUID, req)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func validRequest() models.DummyComercio {
	return models.DummyComercio{
		Nombre:     "Panadería La Única",
		RubroID:    "rubro-1",
		SubRubroID: "subrubro-1",
		CiudadID:   "ciudad-1",
		Whatsapp:   "+5492231111111",
	}
}

func TestCreateHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(ComercioServiceMock)
	logger := newNoopLogger()

	handler := New(logger, serviceMock)

	tests := []struct {
		name           string
		requestBody    interface{}
		userUID        string
		mockID         string
		mockErr        error
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:           "valid creation",
			requestBody:    validRequest(),
			userUID:        "uid-1",
			mockID:         "com-1",
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "publication limit reached",
			requestBody:    validRequest(),
			userUID:        "uid-1",
			mockErr:        comercioservice.ErrPublicationLimit,
			wantStatusCode: http.StatusForbidden,
			wantStatus:     "Error",
		},
		{
			name:           "missing user in context",
			requestBody:    validRequest(),
			userUID:        "",
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			userUID:        "uid-1",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing nombre",
			requestBody:    models.DummyComercio{RubroID: "r", SubRubroID: "s", CiudadID: "c", Whatsapp: "w"},
			userUID:        "uid-1",
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "service error",
			requestBody:    validRequest(),
			userUID:        "uid-1",
			mockErr:        errors.New("storage unavailable"),
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.mockID != "" || tt.mockErr != nil {
				serviceMock.On("Create", mock.Anything, tt.userUID, mock.Anything).
					Return(tt.mockID, tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/comercios", bytes.NewReader(bodyBytes))
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
