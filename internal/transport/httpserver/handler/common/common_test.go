package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"timebank-go/internal/domain/apperr"
	"timebank-go/pkg/logger"
)

func TestWriteDomainErrorMapsKinds(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{name: "invalid", err: apperr.Invalid("hours must be greater than 0"), status: http.StatusBadRequest, code: "invalid_argument", message: "hours must be greater than 0"},
		{name: "not found", err: apperr.New(apperr.ErrNotFound, "entry not found or already handled"), status: http.StatusNotFound, code: "not_found", message: "entry not found or already handled"},
		{name: "conflict", err: apperr.New(apperr.ErrConflict, "task is in use"), status: http.StatusConflict, code: "conflict", message: "task is in use"},
		{name: "insufficient", err: apperr.New(apperr.ErrInsufficientBalance, "insufficient balance"), status: http.StatusUnprocessableEntity, code: "insufficient_balance", message: "insufficient balance"},
		{name: "forbidden", err: apperr.ErrForbidden, status: http.StatusForbidden, code: "forbidden", message: "forbidden"},
		{name: "wrapped", err: fmt.Errorf("approve: %w", apperr.New(apperr.ErrNotFound, "gone")), status: http.StatusNotFound, code: "not_found", message: "gone"},
		{name: "internal", err: errors.New("pq: connection refused"), status: http.StatusInternalServerError, code: "internal_error", message: "internal error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteDomainError(rec, logger.Nop(), "test.op", tc.err)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			var body errorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Code != tc.code || body.Error.Message != tc.message {
				t.Fatalf("expected %s/%q, got %s/%q", tc.code, tc.message, body.Error.Code, body.Error.Message)
			}
		})
	}
}

func TestIDParam(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{value: "12", ok: true},
		{value: "0", ok: false},
		{value: "-3", ok: false},
		{value: "abc", ok: false},
		{value: "", ok: false},
	}

	for _, tc := range cases {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", tc.value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(contextWithRoute(req, rctx))

		_, err := IDParam(req, "id")
		if (err == nil) != tc.ok {
			t.Fatalf("IDParam(%q): expected ok=%v, got err=%v", tc.value, tc.ok, err)
		}
	}
}

func TestNullableDecimal(t *testing.T) {
	var payload struct {
		Hours NullableDecimal `json:"hours"`
	}

	if err := json.NewDecoder(bytes.NewBufferString(`{}`)).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Hours.Set {
		t.Fatalf("expected absent field to stay unset")
	}

	if err := json.Unmarshal([]byte(`{"hours":null}`), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.Hours.Set || payload.Hours.Value != nil {
		t.Fatalf("expected explicit null, got %+v", payload.Hours)
	}

	if err := json.Unmarshal([]byte(`{"hours":"1.5"}`), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Hours.Value == nil || payload.Hours.Value.StringFixed(2) != "1.50" {
		t.Fatalf("expected 1.50, got %+v", payload.Hours.Value)
	}
}

func contextWithRoute(req *http.Request, rctx *chi.Context) context.Context {
	return context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
}
