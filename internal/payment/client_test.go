package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateSession_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/kashier/session" {
			t.Fatalf("path = %s, want /api/kashier/session", r.URL.Path)
		}

		var payload BookingPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.BookHash != "b99" {
			t.Fatalf("bookHash = %q, want b99", payload.BookHash)
		}
		if payload.TotalPrice != 228 {
			t.Fatalf("totalPrice = %v, want 228", payload.TotalPrice)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {"sessionUrl": "https://pay.kashier.io/s/abc", "orderId": "ord-1"}
		}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	session, err := client.CreateSession(context.Background(), BookingPayload{
		OrderRef:   "ord-1",
		BookHash:   "b99",
		TotalPrice: 228,
		Currency:   "SAR",
	})
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if session.SessionURL != "https://pay.kashier.io/s/abc" {
		t.Fatalf("sessionUrl = %q", session.SessionURL)
	}
	if session.OrderRef != "ord-1" {
		t.Fatalf("orderRef = %q, want ord-1", session.OrderRef)
	}
}

func TestCreateSession_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "message": "amount mismatch"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	_, err := client.CreateSession(context.Background(), BookingPayload{OrderRef: "ord-1"})
	if !errors.Is(err, ErrSessionRejected) {
		t.Fatalf("expected ErrSessionRejected, got %v", err)
	}
}

func TestGetOrderStatus_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/kashier/orders/ord-1" {
			t.Fatalf("path = %s, want /api/kashier/orders/ord-1", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"reservation": {"status": "completed", "ratehawkStatus": "ok"},
				"payment": {"status": "paid"}
			}
		}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	status, err := client.GetOrderStatus(context.Background(), "ord-1")
	if err != nil {
		t.Fatalf("GetOrderStatus error: %v", err)
	}
	if status.ReservationStatus != "completed" {
		t.Fatalf("reservation status = %q, want completed", status.ReservationStatus)
	}
	if status.PaymentStatus != "paid" {
		t.Fatalf("payment status = %q, want paid", status.PaymentStatus)
	}
}

func TestGetSessionStatus_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/kashier/sessions/s1" {
			t.Fatalf("path = %s, want /api/kashier/sessions/s1", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "data": {"status": "expired"}}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	status, err := client.GetSessionStatus(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetSessionStatus error: %v", err)
	}
	if status != "expired" {
		t.Fatalf("status = %q, want expired", status)
	}
}
