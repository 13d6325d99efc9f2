// Package model содержит доменные сущности сервиса бронирования.
package model

import "time"

// MealPlan описывает тип питания, включённый в тариф.
type MealPlan string

const (
	MealBreakfast    MealPlan = "breakfast"
	MealAllInclusive MealPlan = "all_inclusive"
	MealNone         MealPlan = "nomeal"
)

// RoomRate представляет единичное бронируемое предложение поставщика
// на заданные даты. После получения из фида тарифов не изменяется.
type RoomRate struct {
	MatchHash   string    `json:"match_hash"`
	BookHash    string    `json:"book_hash,omitempty"`
	RoomName    string    `json:"room_name"`
	Meal        MealPlan  `json:"meal"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	TotalTaxes  float64   `json:"total_taxes,omitempty"`
	DailyPrices []float64 `json:"daily_prices,omitempty"`

	FreeCancellationBefore string `json:"free_cancellation_before,omitempty"`
}

// RateGroup объединяет тарифы с одинаковым нормализованным названием номера.
// Производная структура: пересчитывается при каждом обновлении списка тарифов.
type RateGroup struct {
	Name  string     `json:"name"`
	Rates []RoomRate `json:"rates"`
}

// Hotel описывает отель из фида поставщика вместе со списком тарифов.
type Hotel struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Destination string     `json:"destination"`
	Rates       []RoomRate `json:"rates,omitempty"`
}

// PromoCodeResult содержит результат проверки промокода сервисом ценовых правил.
// Эфемерный: сбрасывается при изменении текста промокода или стоимости бронирования.
type PromoCodeResult struct {
	Valid         bool    `json:"valid"`
	Code          string  `json:"code,omitempty"`
	Discount      float64 `json:"discount,omitempty"`
	FinalValue    float64 `json:"final_value,omitempty"`
	OriginalValue float64 `json:"original_value,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// DiscountAmount возвращает отображаемый размер скидки. Скидка никогда не
// вычитается на нашей стороне: к оплате идёт FinalValue, рассчитанный сервером правил.
func (p *PromoCodeResult) DiscountAmount() float64 {
	if p == nil || !p.Valid {
		return 0
	}
	return p.OriginalValue - p.FinalValue
}

// SupplierPayment содержит цену поставщика из ответа пребука без наценки.
// Используется только для сверки и никогда не списывается с клиента.
type SupplierPayment struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// PrebookResult — ответ системы инвентаря о том, что тариф всё ещё доступен.
// BookHash передаётся в итоговый платёжный запрос без изменений.
type PrebookResult struct {
	BookHash string          `json:"book_hash"`
	Payment  SupplierPayment `json:"payment"`
}

// CheckoutSession — ссылка на платёжную сессию, выданная платёжным шлюзом.
// Единственная дальнейшая обязанность клиента — перенаправить браузер на SessionURL.
type CheckoutSession struct {
	SessionURL string `json:"session_url"`
	OrderRef   string `json:"order_ref"`
}

// BookingStatus описывает статус оплаты созданного бронирования.
type BookingStatus string

const (
	BookingStatusPending       BookingStatus = "PENDING"
	BookingStatusPaid          BookingStatus = "PAID"
	BookingStatusFailed        BookingStatus = "FAILED"
	BookingStatusPendingReview BookingStatus = "PENDING_REVIEW"
)

// Booking описывает бронирование, сохранённое в момент отправки на оплату.
type Booking struct {
	ID               int64
	OrderRef         string
	HotelID          string
	BookHash         string
	CheckIn          string
	CheckOut         string
	RoomCount        int
	TotalPrice       float64
	Currency         string
	SupplierAmount   float64
	SupplierCurrency string
	PromoCode        string
	Status           BookingStatus
	PollAttempts     int
	CreatedAt        time.Time
}
