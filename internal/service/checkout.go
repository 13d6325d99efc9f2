package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safarly/booking-system/internal/inventory"
	"github.com/safarly/booking-system/internal/model"
	"github.com/safarly/booking-system/internal/payment"
	"github.com/safarly/booking-system/internal/pricing"
)

// ErrCheckoutInFlight возвращается при повторной отправке черновика,
// пока предыдущая не завершилась.
var (
	ErrCheckoutInFlight = errors.New("checkout already in progress")
	// ErrPrebookFailed возвращается при временном сбое пребука; можно повторить.
	ErrPrebookFailed = errors.New("prebook request failed")
	// ErrPaymentSession возвращается при сбое создания платёжной сессии.
	ErrPaymentSession = errors.New("payment session creation failed")
)

type selectionEntry struct {
	rate  model.RoomRate
	count int
}

// checkoutSnapshot фиксирует состояние черновика в момент отправки.
// Выполняющееся оформление работает только с этим снимком: правки черновика,
// сделанные позже, на него не влияют.
type checkoutSnapshot struct {
	hotelID     string
	destination string
	checkIn     string
	checkOut    string
	entries     []selectionEntry
	roomCount   int
	promo       *model.PromoCodeResult
	promoCode   string
	guestName   string
	guestPhone  string
}

// Checkout выполняет строго упорядоченное оформление: пребук тарифа,
// повторный расчёт итоговой суммы по снимку состояния, создание платёжной
// сессии и сохранение бронирования. Любой сбой шага прерывает оформление и
// оставляет черновик нетронутым для повторной отправки; автоматических
// повторов нет. После потери тарифа или отказа шлюза списание невозможно.
func (s *Service) Checkout(ctx context.Context, sessionID string, draftID uuid.UUID) (*model.CheckoutSession, error) {
	d, err := s.getOwnedDraft(draftID, sessionID)
	if err != nil {
		return nil, err
	}

	snap, err := d.beginCheckout()
	if err != nil {
		return nil, err
	}
	defer d.endCheckout()

	// Шаг 1: пребук. Без подтверждённой брони платёжная сессия не создаётся.
	prebook, err := s.inventory.PrebookRate(ctx, inventory.PrebookRequest{
		MatchHash: snap.entries[0].rate.MatchHash,
		HotelID:   snap.hotelID,
		CheckIn:   snap.checkIn,
		CheckOut:  snap.checkOut,
	})
	if err != nil {
		if errors.Is(err, inventory.ErrRateUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrPrebookFailed, err)
	}

	// Шаг 2: повторный расчёт итоговой суммы по снимку. Между показом цены
	// и отправкой могли измениться промокод или количество номеров, поэтому
	// сумма к списанию всегда пересчитывается здесь.
	var quote pricing.Quote
	for i, e := range snap.entries {
		entry := pricing.ComputeTotal(e.rate, e.count, nil)
		if i == 0 {
			quote = entry
		} else {
			quote = pricing.Merge(quote, entry)
		}
	}
	quote = pricing.ApplyPromo(quote, snap.promo)

	promoCode := ""
	if snap.promo != nil && snap.promo.Valid {
		promoCode = snap.promoCode
	}

	payload := payment.BookingPayload{
		OrderRef: uuid.NewString(),
		BookHash: prebook.BookHash,
		HotelID:  snap.hotelID,
		CheckIn:  snap.checkIn,
		CheckOut: snap.checkOut,

		RoomCount: snap.roomCount,

		// Цена поставщика уходит бэкенду только для сверки;
		// списывается сумма, показанная пользователю.
		SupplierAmount:   prebook.Payment.Amount,
		SupplierCurrency: prebook.Payment.Currency,
		TotalPrice:       quote.Charge,
		Currency:         quote.Currency,

		PromoCode:  promoCode,
		GuestName:  snap.guestName,
		GuestPhone: snap.guestPhone,
	}

	booking := &model.Booking{
		OrderRef:         payload.OrderRef,
		HotelID:          payload.HotelID,
		BookHash:         payload.BookHash,
		CheckIn:          payload.CheckIn,
		CheckOut:         payload.CheckOut,
		RoomCount:        payload.RoomCount,
		TotalPrice:       payload.TotalPrice,
		Currency:         payload.Currency,
		SupplierAmount:   payload.SupplierAmount,
		SupplierCurrency: payload.SupplierCurrency,
		PromoCode:        promoCode,
		Status:           model.BookingStatusPending,
	}

	if _, err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	// Шаг 3: платёжная сессия. При отказе бронирование помечается
	// неуспешным, черновик остаётся для повторной отправки.
	session, err := s.payment.CreateSession(ctx, payload)
	if err != nil {
		if updateErr := s.repo.UpdateBookingStatus(ctx, payload.OrderRef, model.BookingStatusFailed); updateErr != nil {
			s.logger.Error("mark booking failed", zap.Error(updateErr), zap.String("orderRef", payload.OrderRef))
		}
		return nil, fmt.Errorf("%w: %w", ErrPaymentSession, err)
	}

	// Шаг 4: черновик завершён, дальше только редирект на платёжную страницу.
	s.drafts.Delete(d.ID)

	return session, nil
}

// beginCheckout валидирует анкету, ставит флаг выполняющегося оформления и
// снимает снимок состояния черновика.
func (d *Draft) beginCheckout() (*checkoutSnapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.inFlight {
		return nil, ErrCheckoutInFlight
	}

	if d.Selection.Len() == 0 {
		return nil, ErrNoRateSelected
	}

	if err := d.Wizard.Submit(); err != nil {
		return nil, err
	}

	snap := &checkoutSnapshot{
		hotelID:     d.HotelID,
		destination: d.Destination,
		checkIn:     d.CheckIn,
		checkOut:    d.CheckOut,
		roomCount:   d.Selection.TotalRooms(),
		promoCode:   d.PromoCode,
	}

	for _, hash := range d.Selection.Hashes() {
		snap.entries = append(snap.entries, selectionEntry{
			rate:  d.rates[hash],
			count: d.Selection.Count(hash),
		})
	}

	if d.Promo != nil {
		promoCopy := *d.Promo
		snap.promo = &promoCopy
	}

	if guests := d.Wizard.Form.Guests; len(guests) > 0 {
		snap.guestName = guests[0].Name
		snap.guestPhone = guests[0].Phone
	}

	d.inFlight = true
	d.touchedAt = time.Now()

	return snap, nil
}

func (d *Draft) endCheckout() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight = false
}
