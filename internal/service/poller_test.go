package service

import (
	"context"
	"errors"
	"testing"

	"github.com/safarly/booking-system/internal/model"
	"github.com/safarly/booking-system/internal/payment"
	"github.com/safarly/booking-system/internal/repository"
)

func TestProcessPaymentBatch_MarksPaid(t *testing.T) {
	repo := newStubRepo()
	repo.pending = []repository.BookingForPoll{{OrderRef: "o1"}}
	pay := &stubPayment{status: &payment.OrderStatus{ReservationStatus: "completed", PaymentStatus: "paid"}}

	svc := newTestService(repo, &stubInventory{}, &stubPromo{}, pay)
	svc.processPaymentBatch(context.Background())

	if got := repo.statuses["o1"]; got != model.BookingStatusPaid {
		t.Fatalf("status = %s, want PAID", got)
	}
	if repo.pollAttempts["o1"] != 0 {
		t.Fatalf("attempts must not be bumped on terminal status")
	}
}

func TestProcessPaymentBatch_MarksFailed(t *testing.T) {
	repo := newStubRepo()
	repo.pending = []repository.BookingForPoll{{OrderRef: "o1"}}
	pay := &stubPayment{status: &payment.OrderStatus{PaymentStatus: "declined"}}

	svc := newTestService(repo, &stubInventory{}, &stubPromo{}, pay)
	svc.processPaymentBatch(context.Background())

	if got := repo.statuses["o1"]; got != model.BookingStatusFailed {
		t.Fatalf("status = %s, want FAILED", got)
	}
}

func TestProcessPaymentBatch_PendingBumpsAttempts(t *testing.T) {
	repo := newStubRepo()
	repo.pending = []repository.BookingForPoll{{OrderRef: "o1"}}
	pay := &stubPayment{status: &payment.OrderStatus{ReservationStatus: "processing", PaymentStatus: "pending"}}

	svc := newTestService(repo, &stubInventory{}, &stubPromo{}, pay)
	svc.processPaymentBatch(context.Background())

	if _, ok := repo.statuses["o1"]; ok {
		t.Fatalf("status must stay unchanged while payment is pending")
	}
	if repo.pollAttempts["o1"] != 1 {
		t.Fatalf("attempts = %d, want 1", repo.pollAttempts["o1"])
	}
}

func TestProcessPaymentBatch_GatewayErrorBumpsAttempts(t *testing.T) {
	repo := newStubRepo()
	repo.pending = []repository.BookingForPoll{{OrderRef: "o1"}}
	pay := &stubPayment{statusErr: errors.New("gateway timeout")}

	svc := newTestService(repo, &stubInventory{}, &stubPromo{}, pay)
	svc.processPaymentBatch(context.Background())

	if repo.pollAttempts["o1"] != 1 {
		t.Fatalf("attempts = %d, want 1", repo.pollAttempts["o1"])
	}
}

func TestBumpPollAttempts_ExhaustionMarksReview(t *testing.T) {
	repo := newStubRepo()
	repo.pollAttempts["o1"] = maxPollAttempts - 1

	svc := newTestService(repo, &stubInventory{}, &stubPromo{}, &stubPayment{})
	svc.bumpPollAttempts(context.Background(), "o1")

	if got := repo.statuses["o1"]; got != model.BookingStatusPendingReview {
		t.Fatalf("status = %s, want PENDING_REVIEW after attempt limit", got)
	}
}

func TestClassifyOrderStatus(t *testing.T) {
	tests := []struct {
		name        string
		reservation string
		payment     string
		want        model.BookingStatus
	}{
		{"paid and confirmed", "confirmed", "paid", model.BookingStatusPaid},
		{"paid and completed", "completed", "success", model.BookingStatusPaid},
		{"paid but reservation rejected", "rejected", "paid", model.BookingStatusFailed},
		{"paid but reservation pending", "processing", "paid", model.BookingStatusPending},
		{"payment declined", "", "declined", model.BookingStatusFailed},
		{"payment expired", "", "expired", model.BookingStatusFailed},
		{"unknown combination", "weird", "weird", model.BookingStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyOrderStatus(tt.reservation, tt.payment); got != tt.want {
				t.Fatalf("classifyOrderStatus(%q, %q) = %s, want %s", tt.reservation, tt.payment, got, tt.want)
			}
		})
	}
}
