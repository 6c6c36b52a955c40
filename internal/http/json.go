package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/target/foodorder-ui/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteAppError maps an application error onto a JSON error response.
// The message is the user-facing one; causes are never exposed. Validation
// errors also name the failing field.
func WriteAppError(w http.ResponseWriter, err error, fallback string) {
	code, errCode := statusForError(err)
	body := map[string]string{
		"error":   errCode,
		"message": apperrors.UserMessage(err, fallback),
	}
	if field := apperrors.GetField(err); field != "" {
		body["field"] = field
	}
	WriteJSON(w, code, body)
}

func statusForError(err error) (int, string) {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest, string(apperrors.ErrCodeValidation)
	case apperrors.ErrCodeAuthUnavailable:
		return http.StatusUnauthorized, string(apperrors.ErrCodeAuthUnavailable)
	case apperrors.ErrCodeRequestFailed:
		return http.StatusBadGateway, string(apperrors.ErrCodeRequestFailed)
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound, string(apperrors.ErrCodeNotFound)
	case apperrors.ErrCodeConfigMissing:
		return http.StatusServiceUnavailable, string(apperrors.ErrCodeConfigMissing)
	default:
		return http.StatusInternalServerError, string(apperrors.ErrCodeInternal)
	}
}
