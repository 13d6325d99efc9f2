// Package pricing вычисляет итоговую стоимость бронирования.
package pricing

import (
	"math"

	"github.com/safarly/booking-system/internal/model"
)

// taxFallbackRate — оценочная ставка налога, применяемая когда фид не вернул
// точную сумму налогов. Ровно 14%: эта же цифра показывается пользователю
// и уходит в платёжную сессию.
const taxFallbackRate = 0.14

// Quote содержит разбивку стоимости бронирования. Charge — сумма к списанию:
// при действующем промокоде это FinalValue, рассчитанный сервером правил,
// иначе Total.
type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Taxes    float64 `json:"taxes"`
	Total    float64 `json:"total"`
	Charge   float64 `json:"charge"`
	Currency string  `json:"currency"`
}

// ComputeTotal рассчитывает стоимость проживания по выбранному тарифу.
// Цена тарифа берётся за весь период проживания и уже содержит наценку,
// посчитанную выше по потоку: здесь она никогда не пересчитывается.
// Налоги поставщика масштабируются линейно по количеству номеров; при их
// отсутствии применяется оценка taxFallbackRate от промежуточной суммы.
func ComputeTotal(rate model.RoomRate, roomCount int, promo *model.PromoCodeResult) Quote {
	if roomCount < 1 {
		roomCount = 1
	}

	subtotal := round2(rate.Price * float64(roomCount))

	var taxes float64
	if rate.TotalTaxes > 0 {
		taxes = round2(rate.TotalTaxes * float64(roomCount))
	} else {
		taxes = round2(subtotal * taxFallbackRate)
	}

	total := round2(subtotal + taxes)

	q := Quote{
		Subtotal: subtotal,
		Taxes:    taxes,
		Total:    total,
		Charge:   total,
		Currency: rate.Currency,
	}

	if promo != nil && promo.Valid {
		q.Charge = promo.FinalValue
	}

	return q
}

// Merge складывает две разбивки стоимости. Используется для выбора из
// нескольких тарифов; валюта берётся из первой непустой разбивки.
func Merge(a, b Quote) Quote {
	currency := a.Currency
	if currency == "" {
		currency = b.Currency
	}

	return Quote{
		Subtotal: round2(a.Subtotal + b.Subtotal),
		Taxes:    round2(a.Taxes + b.Taxes),
		Total:    round2(a.Total + b.Total),
		Charge:   round2(a.Charge + b.Charge),
		Currency: currency,
	}
}

// ApplyPromo применяет действующий промокод к готовой разбивке. Сумма к
// списанию заменяется на FinalValue; Total не трогается, чтобы на его базе
// отображалась скидка OriginalValue − FinalValue.
func ApplyPromo(q Quote, promo *model.PromoCodeResult) Quote {
	if promo != nil && promo.Valid {
		q.Charge = promo.FinalValue
	}
	return q
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
