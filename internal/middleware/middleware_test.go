package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qahwa/internal/config"
	"qahwa/internal/model"
	"qahwa/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		expectedStatus int
		expectHandler  bool
	}{
		{
			name:           "Preflight request",
			method:         http.MethodOptions,
			expectedStatus: http.StatusNoContent,
			expectHandler:  false,
		},
		{
			name:           "GET request",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "POST request",
			method:         http.MethodPost,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			handler := CORS(testHandler)

			req := httptest.NewRequest(tt.method, "/test", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization, X-Guest-ID", w.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}

func TestSession(t *testing.T) {
	logger := zerolog.Nop()
	auth := session.NewAuthenticator(config.AuthConfig{JWTSecret: "test-secret", Issuer: "qahwa"})
	userID := uuid.New()
	token, err := auth.Issue(userID, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
		expectHandler  bool
		expectSubject  string
	}{
		{
			name:           "Bearer token",
			headers:        map[string]string{"Authorization": "Bearer " + token},
			expectedStatus: http.StatusOK,
			expectHandler:  true,
			expectSubject:  "user:" + userID.String(),
		},
		{
			name:           "Bearer token wins over guest id",
			headers:        map[string]string{"Authorization": "Bearer " + token, "X-Guest-ID": "g-1"},
			expectedStatus: http.StatusOK,
			expectHandler:  true,
			expectSubject:  "user:" + userID.String(),
		},
		{
			name:           "Guest id",
			headers:        map[string]string{"X-Guest-ID": "g-1"},
			expectedStatus: http.StatusOK,
			expectHandler:  true,
			expectSubject:  "guest:g-1",
		},
		{
			name:           "Invalid token",
			headers:        map[string]string{"Authorization": "Bearer not-a-token"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid guest id",
			headers:        map[string]string{"X-Guest-ID": "../../etc"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "No credentials",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			var subject string
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				sess, ok := session.FromContext(r.Context())
				require.True(t, ok)
				subject = sess.Subject()
				w.WriteHeader(http.StatusOK)
			})

			handler := Session(auth, logger)(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			assert.Equal(t, tt.expectSubject, subject)
			if !tt.expectHandler {
				var resp model.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, model.ErrCodeUnauthorised, resp.Code)
			}
		})
	}
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		wantLevel     string
	}{
		{name: "Successful request", method: http.MethodGet, path: "/api/products", handlerStatus: http.StatusOK, wantLevel: "info"},
		{name: "Implicit status", method: http.MethodGet, path: "/api/cart", wantLevel: "info"},
		{name: "Client error", method: http.MethodPost, path: "/api/cart/items", handlerStatus: http.StatusBadRequest, wantLevel: "info"},
		{name: "Gateway failure", method: http.MethodPost, path: "/api/checkout", handlerStatus: http.StatusBadGateway, wantLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.handlerStatus != 0 {
					w.WriteHeader(tt.handlerStatus)
				}
				_, _ = w.Write([]byte("{}"))
			}))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			wantStatus := tt.handlerStatus
			if wantStatus == 0 {
				wantStatus = http.StatusOK
			}
			assert.Equal(t, wantStatus, w.Code)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.method, entry["method"])
			assert.Equal(t, tt.path, entry["path"])
			assert.EqualValues(t, wantStatus, entry["status"])
			assert.Equal(t, "http request", entry["message"])
		})
	}
}

func TestRecovery(t *testing.T) {
	t.Run("Passes through", func(t *testing.T) {
		handler := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	for name, value := range map[string]any{
		"Panic with string": "nil cart engine",
		"Panic with error":  assert.AnError,
	} {
		t.Run(name, func(t *testing.T) {
			handler := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(value)
			}))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			var resp model.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "internal server error", resp.Error)
			assert.Equal(t, model.ErrCodeInternalError, resp.Code)
			assert.Equal(t, model.MsgUnexpected, resp.Message)
		})
	}
}
