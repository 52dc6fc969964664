package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// response mirrors both envelopes.
type response struct {
	Success    bool              `json:"success"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      string            `json:"error"`
	Message    string            `json:"message"`
}

func newRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func as(req *http.Request, p auth.Principal) *http.Request {
	return req.WithContext(auth.WithPrincipal(req.Context(), p))
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", model.NewValidationError("name is required"), http.StatusBadRequest, model.ErrCodeValidation},
		{"not found", model.ErrOrderNotFound, http.StatusNotFound, model.ErrCodeOrderNotFound},
		{"conflict", model.NewDomainError(model.KindConflict, model.ErrCodeConflict, "dup"), http.StatusConflict, model.ErrCodeConflict},
		{"unauthorised", model.ErrUnauthorised, http.StatusUnauthorized, model.ErrCodeUnauthorised},
		{"forbidden", model.ErrForbidden, http.StatusForbidden, model.ErrCodeForbidden},
		{"invalid state", model.ErrAlreadyRefunded, http.StatusBadRequest, model.ErrCodeAlreadyRefunded},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, model.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err, zerolog.Nop())

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("password authentication failed for user postgres"), zerolog.Nop())

	assert.NotContains(t, w.Body.String(), "postgres")
}

func TestDecoder(t *testing.T) {
	d := newDecoder()

	t.Run("malformed JSON", func(t *testing.T) {
		var req model.CouponCheckRequest
		err := d.decode(httptest.NewRecorder(), newRequest(t, http.MethodPost, "/", `{"code":`), &req)
		de, ok := model.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, model.ErrCodeInvalidJSON, de.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		var req model.CouponCheckRequest
		err := d.decode(httptest.NewRecorder(), newRequest(t, http.MethodPost, "/", `{"code":"A","bogus":1}`), &req)
		de, ok := model.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, model.ErrCodeInvalidJSON, de.Code)
	})

	t.Run("schema violation", func(t *testing.T) {
		var req model.CouponCheckRequest
		err := d.decode(httptest.NewRecorder(), newRequest(t, http.MethodPost, "/", `{"purchaseAmount":-1}`), &req)
		de, ok := model.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, model.ErrCodeValidation, de.Code)
		assert.Contains(t, de.Message, "code is required")
		assert.Contains(t, de.Message, "purchaseAmount must be greater than or equal to 0")
	})

	t.Run("empty body", func(t *testing.T) {
		var req model.NoteRequest
		assert.NoError(t, d.decode(httptest.NewRecorder(), newRequest(t, http.MethodPost, "/", nil), &req))
	})

	t.Run("oversized body", func(t *testing.T) {
		var req model.NoteRequest
		body := `{"note":"` + strings.Repeat("x", maxBodyBytes) + `"}`
		err := d.decode(httptest.NewRecorder(), newRequest(t, http.MethodPost, "/", body), &req)
		assert.True(t, model.IsKind(err, model.KindValidation))
	})
}
