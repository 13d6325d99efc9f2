// Package payment предоставляет клиент платёжного шлюза Kashier.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/safarly/booking-system/internal/model"
)

// ErrSessionRejected возвращается, когда шлюз отказал в создании платёжной сессии.
var ErrSessionRejected = errors.New("payment session rejected")

// Client инкапсулирует HTTP-взаимодействие с платёжным шлюзом.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент платёжного шлюза по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BookingPayload — платёжный запрос на создание сессии. TotalPrice — сумма,
// показанная пользователю (после промокода); SupplierAmount — справочная цена
// поставщика из пребука, бэкенд использует её только для сверки.
type BookingPayload struct {
	OrderRef         string  `json:"orderRef"`
	BookHash         string  `json:"bookHash"`
	HotelID          string  `json:"hotelId"`
	CheckIn          string  `json:"checkIn"`
	CheckOut         string  `json:"checkOut"`
	RoomCount        int     `json:"roomCount"`
	SupplierAmount   float64 `json:"supplierAmount"`
	SupplierCurrency string  `json:"supplierCurrency"`
	TotalPrice       float64 `json:"totalPrice"`
	Currency         string  `json:"currency"`
	PromoCode        string  `json:"promoCode,omitempty"`
	GuestName        string  `json:"guestName,omitempty"`
	GuestPhone       string  `json:"guestPhone,omitempty"`
}

type sessionData struct {
	SessionURL string `json:"sessionUrl"`
	OrderID    string `json:"orderId"`
}

type sessionEnvelope struct {
	Success bool         `json:"success"`
	Data    *sessionData `json:"data"`
	Message string       `json:"message,omitempty"`
}

// OrderStatus описывает сводный статус заказа в шлюзе: состояние резервации
// у поставщика и состояние платежа.
type OrderStatus struct {
	ReservationStatus string `json:"status"`
	RatehawkStatus    string `json:"ratehawkStatus"`
	PaymentStatus     string `json:"paymentStatus"`
}

type orderStatusEnvelope struct {
	Success bool `json:"success"`
	Data    *struct {
		Reservation struct {
			Status         string `json:"status"`
			RatehawkStatus string `json:"ratehawkStatus"`
		} `json:"reservation"`
		Payment struct {
			Status string `json:"status"`
		} `json:"payment"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

// CreateSession создаёт платёжную сессию и возвращает адрес размещённой
// платёжной страницы для редиректа браузера.
func (c *Client) CreateSession(ctx context.Context, payload BookingPayload) (*model.CheckoutSession, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("payment client not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/kashier/session", c.baseURL)

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

	var env sessionEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !env.Success || env.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionRejected, env.Message)
	}

	orderRef := env.Data.OrderID
	if orderRef == "" {
		orderRef = payload.OrderRef
	}

	return &model.CheckoutSession{
		SessionURL: env.Data.SessionURL,
		OrderRef:   orderRef,
	}, nil
}

// GetOrderStatus запрашивает статус заказа для постредиректной сверки оплаты.
func (c *Client) GetOrderStatus(ctx context.Context, orderRef string) (*OrderStatus, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("payment client not configured")
	}

	reqURL := fmt.Sprintf("%s/api/kashier/orders/%s", c.baseURL, url.PathEscape(orderRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var env orderStatusEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !env.Success || env.Data == nil {
		return nil, fmt.Errorf("get order status: %s", env.Message)
	}

	return &OrderStatus{
		ReservationStatus: env.Data.Reservation.Status,
		RatehawkStatus:    env.Data.Reservation.RatehawkStatus,
		PaymentStatus:     env.Data.Payment.Status,
	}, nil
}

// GetSessionStatus запрашивает состояние платёжной сессии.
func (c *Client) GetSessionStatus(ctx context.Context, sessionID string) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("payment client not configured")
	}

	reqURL := fmt.Sprintf("%s/api/kashier/sessions/%s", c.baseURL, url.PathEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var env struct {
		Success bool `json:"success"`
		Data    *struct {
			Status string `json:"status"`
		} `json:"data"`
		Message string `json:"message,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if !env.Success || env.Data == nil {
		return "", fmt.Errorf("get session status: %s", env.Message)
	}

	return env.Data.Status, nil
}
