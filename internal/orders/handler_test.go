package orders

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_HandleCreate_BadRequest(t *testing.T) {
	handler := NewHandler(nil, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "invalid request body" {
		t.Errorf("unexpected error message: %s", resp["error"])
	}
}

func TestHandler_HandleRecordPayment_Validation(t *testing.T) {
	handler := NewHandler(nil, nil, discardLogger())

	t.Run("missing order_id", func(t *testing.T) {
		body := `{"amount_paid": "20.00", "payment_method": "credit_card"}`
		req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleRecordPayment(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing payment_method", func(t *testing.T) {
		body := `{"order_id": "abc", "amount_paid": "20.00"}`
		req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleRecordPayment(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader("[["))
		rec := httptest.NewRecorder()

		handler.HandleRecordPayment(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
