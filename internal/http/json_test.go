package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/target/foodorder-ui/internal/errors"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_code", Err: errors.New("code is required")})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"missing_code","message":"code is required"}`, w.Body.String())
}

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		errCode string
		message string
		field   string
	}{
		{
			name:    "request failed carries operation",
			err:     apperrors.RequestFailed("Failed to update user", http.StatusInternalServerError),
			code:    http.StatusBadGateway,
			errCode: "request_failed",
			message: "Failed to update user",
		},
		{
			name:    "validation carries field message",
			err:     apperrors.ValidationField("city", "city is required"),
			code:    http.StatusBadRequest,
			errCode: "validation_failed",
			message: "city is required",
			field:   "city",
		},
		{
			name:    "auth unavailable uses fallback",
			err:     apperrors.AuthUnavailable(errors.New("refresh token revoked")),
			code:    http.StatusUnauthorized,
			errCode: "auth_unavailable",
			message: "Failed to fetch user",
		},
		{
			name:    "plain error is internal",
			err:     errors.New("boom"),
			code:    http.StatusInternalServerError,
			errCode: "internal",
			message: "Failed to fetch user",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteAppError(w, tt.err, "Failed to fetch user")

			assert.Equal(t, tt.code, w.Code)
			want := `{"error":"` + tt.errCode + `","message":"` + tt.message + `"`
			if tt.field != "" {
				want += `,"field":"` + tt.field + `"`
			}
			assert.JSONEq(t, want+`}`, w.Body.String())
			assert.NotContains(t, w.Body.String(), "revoked")
		})
	}
}
