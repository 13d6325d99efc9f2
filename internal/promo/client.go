// Package promo предоставляет клиент сервиса ценовых правил для проверки промокодов.
package promo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/safarly/booking-system/internal/model"
)

// Client инкапсулирует HTTP-взаимодействие с сервисом ценовых правил.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент сервиса промокодов по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type validateRequest struct {
	Code         string  `json:"code"`
	BookingValue float64 `json:"bookingValue"`
	HotelID      string  `json:"hotelId"`
	Destination  string  `json:"destination"`
	UserID       string  `json:"userId,omitempty"`
}

type validateData struct {
	Code          string  `json:"code"`
	Discount      float64 `json:"discount"`
	FinalValue    float64 `json:"finalValue"`
	OriginalValue float64 `json:"originalValue"`
}

type validateEnvelope struct {
	Success bool          `json:"success"`
	Data    *validateData `json:"data"`
	Message string        `json:"message,omitempty"`
}

// Validate проверяет промокод против стоимости бронирования до скидки.
// Отказ сервера по бизнес-правилу (success=false) не является ошибкой:
// возвращается результат с Valid=false и сообщением сервера. Ошибкой
// считаются только транспортные сбои и неожиданные статусы.
func (c *Client) Validate(ctx context.Context, code string, bookingValue float64, hotelID, destination, userID string) (*model.PromoCodeResult, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("promo client not configured")
	}

	body, err := json.Marshal(validateRequest{
		Code:         code,
		BookingValue: bookingValue,
		HotelID:      hotelID,
		Destination:  destination,
		UserID:       userID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/promo-codes/validate", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var env validateEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !env.Success || env.Data == nil {
		return &model.PromoCodeResult{
			Valid:   false,
			Code:    code,
			Message: env.Message,
		}, nil
	}

	return &model.PromoCodeResult{
		Valid:         true,
		Code:          env.Data.Code,
		Discount:      env.Data.Discount,
		FinalValue:    env.Data.FinalValue,
		OriginalValue: env.Data.OriginalValue,
	}, nil
}
