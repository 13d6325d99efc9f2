package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/safarly/booking-system/internal/model"
)

const (
	paymentPollInterval = 5 * time.Second
	pollBatchSize       = 100

	// maxPollAttempts ограничивает число опросов статуса одного заказа.
	// По исчерпании лимита бронирование помечается на ручную проверку,
	// а не объявляется неуспешным.
	maxPollAttempts = 30
)

// StartPaymentStatusUpdates запускает фоновую сверку статусов оплаты с
// платёжным шлюзом для бронирований, ожидающих подтверждения.
func (s *Service) StartPaymentStatusUpdates(ctx context.Context) {
	if s.payment == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(paymentPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.processPaymentBatch(ctx)
			}
		}
	}()
}

func (s *Service) processPaymentBatch(ctx context.Context) {
	bookings, err := s.repo.GetPendingBookings(ctx, pollBatchSize, maxPollAttempts)
	if err != nil {
		s.logger.Error("select pending bookings", zap.Error(err))
		return
	}

	for _, b := range bookings {
		status, err := s.payment.GetOrderStatus(ctx, b.OrderRef)
		if err != nil {
			s.bumpPollAttempts(ctx, b.OrderRef)
			continue
		}

		switch classifyOrderStatus(status.ReservationStatus, status.PaymentStatus) {
		case model.BookingStatusPaid:
			if err := s.repo.UpdateBookingStatus(ctx, b.OrderRef, model.BookingStatusPaid); err != nil {
				s.logger.Error("mark booking paid", zap.Error(err), zap.String("orderRef", b.OrderRef))
			}
		case model.BookingStatusFailed:
			if err := s.repo.UpdateBookingStatus(ctx, b.OrderRef, model.BookingStatusFailed); err != nil {
				s.logger.Error("mark booking failed", zap.Error(err), zap.String("orderRef", b.OrderRef))
			}
		default:
			s.bumpPollAttempts(ctx, b.OrderRef)
		}
	}
}

func (s *Service) bumpPollAttempts(ctx context.Context, orderRef string) {
	attempts, err := s.repo.IncrementPollAttempts(ctx, orderRef)
	if err != nil {
		s.logger.Error("increment poll attempts", zap.Error(err), zap.String("orderRef", orderRef))
		return
	}

	if attempts >= maxPollAttempts {
		if err := s.repo.UpdateBookingStatus(ctx, orderRef, model.BookingStatusPendingReview); err != nil {
			s.logger.Error("mark booking for review", zap.Error(err), zap.String("orderRef", orderRef))
		}
	}
}

// classifyOrderStatus сводит статусы резервации и платежа шлюза к статусу
// бронирования. Неизвестные комбинации остаются в ожидании.
func classifyOrderStatus(reservation, paymentStatus string) model.BookingStatus {
	switch paymentStatus {
	case "paid", "success":
		switch reservation {
		case "completed", "confirmed":
			return model.BookingStatusPaid
		case "failed", "cancelled", "rejected":
			return model.BookingStatusFailed
		default:
			return model.BookingStatusPending
		}
	case "failed", "cancelled", "expired", "declined":
		return model.BookingStatusFailed
	default:
		return model.BookingStatusPending
	}
}
