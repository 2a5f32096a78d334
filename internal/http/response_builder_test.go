package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func triggers(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := w.Header().Get(HeaderTrigger)
	require.NotEmpty(t, raw, "HX-Trigger header not set")
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		JSON(map[string]int{"n": 1}).
		Write(w)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "value", w.Header().Get("X-Custom"))
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())
	assert.Empty(t, w.Header().Get(HeaderTrigger))
}

func TestResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		TriggerChanged("expenses", "budgets").
		TriggerSuccessNotification("Expense added successfully!").
		Write(w)

	got := triggers(t, w)
	assert.JSONEq(t, `{"keys":["expenses","budgets"]}`, string(got["data:changed"]))
	assert.JSONEq(t, `{"type":"success","message":"Expense added successfully!","duration":3000}`,
		string(got["show-notification"]))
}

func TestResponseBuilder_Bytes(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Bytes("text/html; charset=utf-8", []byte("<p>hi</p>")).Write(w)

	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<p>hi</p>", w.Body.String())
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *ResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{"bad request", BadRequestError("Invalid input"), http.StatusBadRequest, `{"error":"Invalid input"}`},
		{"unprocessable entity", UnprocessableEntityError("Validation failed"), http.StatusUnprocessableEntity, `{"error":"Validation failed"}`},
		{"internal server error", InternalServerError("Something broke"), http.StatusInternalServerError, `{"error":"Something broke"}`},
		{"not found", NotFoundError("Resource not found"), http.StatusNotFound, `{"error":"Resource not found"}`},
		{"too many requests", TooManyRequestsError("Slow down"), http.StatusTooManyRequests, `{"error":"Slow down"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Contains(t, string(triggers(t, w)["show-notification"]), `"type":"error"`)
		})
	}
}

func TestValidationResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation error names the field",
			err:        fmt.Errorf("add: %w", core.NewValidationError("amount", core.ErrInvalidAmount)),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"error":"amount: invalid amount","field":"amount"}`,
		},
		{
			name:       "import format error",
			err:        &core.ImportFormatError{Err: errors.New("bad json")},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"` + msgImportFailed + `"}`,
		},
		{
			name:       "anything else",
			err:        errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Something went wrong"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ValidationResponse(tt.err, msgRequiredFields).Write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
