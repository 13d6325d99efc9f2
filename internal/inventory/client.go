// Package inventory предоставляет клиент для внешнего фида отелей и тарифов.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/safarly/booking-system/internal/model"
)

// ErrRateUnavailable возвращается, когда пребук сообщает, что тариф
// распродан между показом и отправкой на оплату.
var ErrRateUnavailable = errors.New("rate is no longer available")

// Client инкапсулирует HTTP-взаимодействие с фидом инвентаря.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент фида инвентаря по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SearchResult содержит страницу результатов поиска отелей.
type SearchResult struct {
	Hotels     []model.Hotel `json:"hotels"`
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
}

type searchEnvelope struct {
	Success bool          `json:"success"`
	Data    *SearchResult `json:"data"`
	Message string        `json:"message,omitempty"`
}

// PrebookRequest описывает запрос на переподтверждение доступности тарифа
// непосредственно перед оплатой.
type PrebookRequest struct {
	MatchHash string `json:"matchHash"`
	HotelID   string `json:"hotelId"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
}

type prebookData struct {
	BookHash string `json:"bookHash"`
	Payment  struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"payment"`
}

type prebookEnvelope struct {
	Success bool         `json:"success"`
	Data    *prebookData `json:"data"`
	Message string       `json:"message,omitempty"`
}

type hotelEnvelope struct {
	Success bool         `json:"success"`
	Data    *model.Hotel `json:"data"`
	Message string       `json:"message,omitempty"`
}

// SearchHotels запрашивает страницу отелей по направлению.
func (c *Client) SearchHotels(ctx context.Context, destination string, page, pageSize int) (*SearchResult, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("inventory client not configured")
	}

	q := url.Values{}
	q.Set("destination", destination)
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	reqURL := fmt.Sprintf("%s/api/hotels?%s", c.baseURL, q.Encode())

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

	var env searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !env.Success || env.Data == nil {
		return nil, fmt.Errorf("search hotels: %s", env.Message)
	}

	return env.Data, nil
}

// GetHotelDetails запрашивает карточку отеля вместе со списком тарифов.
func (c *Client) GetHotelDetails(ctx context.Context, hotelID string) (*model.Hotel, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("inventory client not configured")
	}

	reqURL := fmt.Sprintf("%s/api/hotels/%s", c.baseURL, url.PathEscape(hotelID))

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

	var env hotelEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !env.Success || env.Data == nil {
		return nil, fmt.Errorf("get hotel details: %s", env.Message)
	}

	return env.Data, nil
}

// PrebookRate переподтверждает доступность тарифа и возвращает короткоживущий
// BookHash вместе со справочной ценой поставщика. Ответ success=false означает,
// что тариф потерян: дальнейшее оформление должно быть прервано.
func (c *Client) PrebookRate(ctx context.Context, preq PrebookRequest) (*model.PrebookResult, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("inventory client not configured")
	}

	body, err := json.Marshal(preq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/prebook", c.baseURL)

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

	var env prebookEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !env.Success || env.Data == nil {
		return nil, ErrRateUnavailable
	}

	return &model.PrebookResult{
		BookHash: env.Data.BookHash,
		Payment: model.SupplierPayment{
			Amount:   env.Data.Payment.Amount,
			Currency: env.Data.Payment.Currency,
		},
	}, nil
}
