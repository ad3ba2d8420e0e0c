package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/logging"
)

func TestJSONHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantBody   string
	}{
		{"OK", func(w http.ResponseWriter) { OK(w, map[string]string{"total_co2": "2.61"}) }, http.StatusOK, `{"total_co2":"2.61"}`},
		{"Created", func(w http.ResponseWriter) { Created(w, map[string]bool{"ok": true}) }, http.StatusCreated, `{"ok":true}`},
		{"JSON nil body", func(w http.ResponseWriter) { JSON(w, http.StatusAccepted, nil) }, http.StatusAccepted, ``},
		{"list", func(w http.ResponseWriter) { OK(w, []map[string]string{{"fuel": "diesel"}}) }, http.StatusOK, `[{"fuel":"diesel"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantBody == "" {
				assert.Empty(t, rec.Body.String())
				return
			}
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerWithWriter("info", &buf)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantLogged bool
	}{
		{"client error", apperrors.New(apperrors.CodeMissingField, "missing field: fuel"), http.StatusBadRequest, false},
		{"server error", errors.New("connection refused"), http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			req := httptest.NewRequest(http.MethodPost, "/api/emission/", nil)
			ctx := logging.ContextWithRequestID(logger.WithContext(req.Context()), "req-7")
			rec := httptest.NewRecorder()

			Error(rec, req.WithContext(ctx), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp apperrors.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "req-7", resp.RequestID)
			assert.Equal(t, tt.wantLogged, buf.Len() > 0)
		})
	}
}
