// Package handler содержит HTTP-обработчики API сервиса бронирования.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safarly/booking-system/internal/inventory"
	"github.com/safarly/booking-system/internal/middleware"
	"github.com/safarly/booking-system/internal/model"
	"github.com/safarly/booking-system/internal/pricing"
	"github.com/safarly/booking-system/internal/repository"
	"github.com/safarly/booking-system/internal/service"
	"github.com/safarly/booking-system/internal/wizard"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	SearchHotels(ctx context.Context, destination string, page, pageSize int) (*inventory.SearchResult, error)
	GetHotelDetails(ctx context.Context, hotelID string) (*model.Hotel, []model.RateGroup, error)

	CreateDraft(ctx context.Context, sessionID string, p service.CreateDraftParams) (*service.Draft, error)
	GetDraft(sessionID string, draftID uuid.UUID) (*service.Draft, error)
	SelectRate(ctx context.Context, sessionID string, draftID uuid.UUID, matchHash string, count int) error
	DeselectRate(sessionID string, draftID uuid.UUID, matchHash string) error
	AdvanceWizard(sessionID string, draftID uuid.UUID, patch wizard.FormPatch) (wizard.Step, error)
	RewindWizard(sessionID string, draftID uuid.UUID) (wizard.Step, error)
	AddGuest(sessionID string, draftID uuid.UUID, name, phone string) error
	RemoveGuest(sessionID string, draftID uuid.UUID, index int) error
	QuoteDraft(sessionID string, draftID uuid.UUID) (pricing.Quote, error)
	ApplyPromo(ctx context.Context, sessionID string, draftID uuid.UUID, code, userID string) (*model.PromoCodeResult, error)
	ClearPromo(sessionID string, draftID uuid.UUID) error
	Checkout(ctx context.Context, sessionID string, draftID uuid.UUID) (*model.CheckoutSession, error)

	GetBookingStatus(ctx context.Context, orderRef string) (*model.Booking, error)
}

// Handler реализует HTTP-обработчики API сервиса бронирования.
type Handler struct {
	service           Service
	logger            *zap.Logger
	sessionMiddleware *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, session *middleware.SessionMiddleware) *Handler {
	return &Handler{
		service:           s,
		logger:            logger,
		sessionMiddleware: session,
	}
}

type rateResponse struct {
	MatchHash              string    `json:"match_hash"`
	RoomName               string    `json:"room_name"`
	Meal                   string    `json:"meal"`
	Price                  float64   `json:"price"`
	TotalTaxes             float64   `json:"total_taxes"`
	Currency               string    `json:"currency"`
	DailyPrices            []float64 `json:"daily_prices,omitempty"`
	FreeCancellationBefore string    `json:"free_cancellation_before,omitempty"`
}

func toRateResponse(r model.RoomRate) rateResponse {
	return rateResponse{
		MatchHash:              r.MatchHash,
		RoomName:               r.RoomName,
		Meal:                   string(r.Meal),
		Price:                  r.Price,
		TotalTaxes:             r.TotalTaxes,
		Currency:               r.Currency,
		DailyPrices:            r.DailyPrices,
		FreeCancellationBefore: r.FreeCancellationBefore,
	}
}

type hotelSummaryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Destination string `json:"destination"`
}

type searchResponse struct {
	Hotels     []hotelSummaryResponse `json:"hotels"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	TotalPages int                    `json:"total_pages"`
}

// SearchHotels возвращает страницу отелей по направлению.
func (h *Handler) SearchHotels(w http.ResponseWriter, r *http.Request) {
	destination := r.URL.Query().Get("destination")
	if destination == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	result, err := h.service.SearchHotels(r.Context(), destination, page, pageSize)
	if err != nil {
		h.logger.Error("search hotels error", zap.Error(err), zap.String("destination", destination))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	resp := searchResponse{
		Hotels:     make([]hotelSummaryResponse, 0, len(result.Hotels)),
		Total:      result.Total,
		Page:       page,
		TotalPages: result.TotalPages,
	}
	for _, hotel := range result.Hotels {
		resp.Hotels = append(resp.Hotels, hotelSummaryResponse{
			ID:          hotel.ID,
			Name:        hotel.Name,
			Destination: hotel.Destination,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type rateGroupResponse struct {
	Name  string         `json:"name"`
	Rates []rateResponse `json:"rates"`
}

type hotelDetailsResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Destination string              `json:"destination"`
	RateGroups  []rateGroupResponse `json:"rate_groups"`
}

// GetHotelDetails возвращает карточку отеля с тарифами, сгруппированными по
// названию номера.
func (h *Handler) GetHotelDetails(w http.ResponseWriter, r *http.Request) {
	hotelID := chi.URLParam(r, "hotelID")

	hotel, groups, err := h.service.GetHotelDetails(r.Context(), hotelID)
	if err != nil {
		h.logger.Error("get hotel details error", zap.Error(err), zap.String("hotelID", hotelID))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	resp := hotelDetailsResponse{
		ID:          hotel.ID,
		Name:        hotel.Name,
		Destination: hotel.Destination,
		RateGroups:  make([]rateGroupResponse, 0, len(groups)),
	}
	for _, g := range groups {
		group := rateGroupResponse{Name: g.Name, Rates: make([]rateResponse, 0, len(g.Rates))}
		for _, rate := range g.Rates {
			group.Rates = append(group.Rates, toRateResponse(rate))
		}
		resp.RateGroups = append(resp.RateGroups, group)
	}

	writeJSON(w, http.StatusOK, resp)
}

type createDraftRequest struct {
	HotelID   string `json:"hotel_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	MatchHash string `json:"match_hash,omitempty"`
	RoomCount int    `json:"room_count,omitempty"`
}

type selectedRoomResponse struct {
	MatchHash string  `json:"match_hash"`
	RoomName  string  `json:"room_name"`
	Meal      string  `json:"meal"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Count     int     `json:"count"`
}

type promoResponse struct {
	Valid         bool    `json:"valid"`
	Code          string  `json:"code"`
	Discount      float64 `json:"discount,omitempty"`
	FinalValue    float64 `json:"final_value,omitempty"`
	OriginalValue float64 `json:"original_value,omitempty"`
	Message       string  `json:"message,omitempty"`
}

func toPromoResponse(p *model.PromoCodeResult) *promoResponse {
	if p == nil {
		return nil
	}
	return &promoResponse{
		Valid:         p.Valid,
		Code:          p.Code,
		Discount:      p.Discount,
		FinalValue:    p.FinalValue,
		OriginalValue: p.OriginalValue,
		Message:       p.Message,
	}
}

type draftResponse struct {
	ID          string `json:"id"`
	HotelID     string `json:"hotel_id"`
	HotelName   string `json:"hotel_name"`
	Destination string `json:"destination"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`

	CurrentStep string      `json:"current_step"`
	Steps       []string    `json:"steps"`
	Form        wizard.Form `json:"form"`

	Rooms []selectedRoomResponse `json:"rooms"`

	PromoCode string         `json:"promo_code,omitempty"`
	Promo     *promoResponse `json:"promo,omitempty"`
}

func toDraftResponse(v service.DraftView) draftResponse {
	resp := draftResponse{
		ID:          v.ID.String(),
		HotelID:     v.HotelID,
		HotelName:   v.HotelName,
		Destination: v.Destination,
		CheckIn:     v.CheckIn,
		CheckOut:    v.CheckOut,
		CurrentStep: string(v.CurrentStep),
		Form:        v.Form,
		PromoCode:   v.PromoCode,
		Promo:       toPromoResponse(v.Promo),
		Rooms:       make([]selectedRoomResponse, 0, len(v.Rooms)),
	}

	for _, s := range v.Steps {
		resp.Steps = append(resp.Steps, string(s))
	}

	for _, room := range v.Rooms {
		resp.Rooms = append(resp.Rooms, selectedRoomResponse{
			MatchHash: room.Rate.MatchHash,
			RoomName:  room.Rate.RoomName,
			Meal:      string(room.Rate.Meal),
			Price:     room.Rate.Price,
			Currency:  room.Rate.Currency,
			Count:     room.Count,
		})
	}

	return resp
}

// CreateDraft создаёт черновик бронирования для текущей сессии.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req createDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.HotelID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	draft, err := h.service.CreateDraft(r.Context(), sessionID, service.CreateDraftParams{
		HotelID:         req.HotelID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		PreselectedRate: req.MatchHash,
		RoomCount:       req.RoomCount,
	})
	if err != nil {
		h.writeServiceError(w, err, "create draft error")
		return
	}

	writeJSON(w, http.StatusCreated, toDraftResponse(draft.View()))
}

// GetDraft возвращает черновик текущей сессии.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	draft, err := h.service.GetDraft(sessionID, draftID)
	if err != nil {
		h.writeServiceError(w, err, "get draft error")
		return
	}

	writeJSON(w, http.StatusOK, toDraftResponse(draft.View()))
}

type selectRateRequest struct {
	MatchHash string `json:"match_hash"`
	Count     int    `json:"count"`
}

// SelectRate добавляет тариф в выбор черновика или меняет количество номеров.
func (h *Handler) SelectRate(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	var req selectRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.MatchHash == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.SelectRate(r.Context(), sessionID, draftID, req.MatchHash, req.Count); err != nil {
		h.writeServiceError(w, err, "select rate error")
		return
	}

	draft, err := h.service.GetDraft(sessionID, draftID)
	if err != nil {
		h.writeServiceError(w, err, "get draft error")
		return
	}

	writeJSON(w, http.StatusOK, toDraftResponse(draft.View()))
}

// DeselectRate убирает тариф из выбора черновика.
func (h *Handler) DeselectRate(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	matchHash := chi.URLParam(r, "matchHash")

	if err := h.service.DeselectRate(sessionID, draftID, matchHash); err != nil {
		h.writeServiceError(w, err, "deselect rate error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type stepResponse struct {
	CurrentStep string `json:"current_step"`
}

// NextStep применяет изменения полей и продвигает анкету на следующий шаг.
func (h *Handler) NextStep(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	var patch wizard.FormPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	step, err := h.service.AdvanceWizard(sessionID, draftID, patch)
	if err != nil {
		h.writeServiceError(w, err, "advance wizard error")
		return
	}

	writeJSON(w, http.StatusOK, stepResponse{CurrentStep: string(step)})
}

// PreviousStep возвращает анкету на предыдущий шаг.
func (h *Handler) PreviousStep(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	step, err := h.service.RewindWizard(sessionID, draftID)
	if err != nil {
		h.writeServiceError(w, err, "rewind wizard error")
		return
	}

	writeJSON(w, http.StatusOK, stepResponse{CurrentStep: string(step)})
}

type guestRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// AddGuest добавляет дополнительного гостя в анкету черновика.
func (h *Handler) AddGuest(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	var req guestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.AddGuest(sessionID, draftID, req.Name, req.Phone); err != nil {
		h.writeServiceError(w, err, "add guest error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RemoveGuest удаляет гостя анкеты по позиции.
func (h *Handler) RemoveGuest(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveGuest(sessionID, draftID, index); err != nil {
		h.writeServiceError(w, err, "remove guest error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type quoteResponse struct {
	Subtotal float64 `json:"subtotal"`
	Taxes    float64 `json:"taxes"`
	Total    float64 `json:"total"`
	Charge   float64 `json:"charge"`
	Currency string  `json:"currency"`
}

// GetQuote возвращает актуальную разбивку стоимости черновика.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	quote, err := h.service.QuoteDraft(sessionID, draftID)
	if err != nil {
		h.writeServiceError(w, err, "quote draft error")
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Subtotal: quote.Subtotal,
		Taxes:    quote.Taxes,
		Total:    quote.Total,
		Charge:   quote.Charge,
		Currency: quote.Currency,
	})
}

type applyPromoRequest struct {
	Code string `json:"code"`
}

// ApplyPromo проверяет промокод для черновика текущей сессии.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	var req applyPromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Code == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	result, err := h.service.ApplyPromo(r.Context(), sessionID, draftID, req.Code, sessionID)
	if err != nil {
		h.writeServiceError(w, err, "apply promo error")
		return
	}

	writeJSON(w, http.StatusOK, toPromoResponse(result))
}

// ClearPromo сбрасывает промокод черновика.
func (h *Handler) ClearPromo(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearPromo(sessionID, draftID); err != nil {
		h.writeServiceError(w, err, "clear promo error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type checkoutResponse struct {
	SessionURL string `json:"session_url"`
	OrderRef   string `json:"order_ref"`
}

// Checkout отправляет черновик на оформление и возвращает ссылку на
// платёжную страницу.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID, draftID, ok := h.draftRequest(w, r)
	if !ok {
		return
	}

	session, err := h.service.Checkout(r.Context(), sessionID, draftID)
	if err != nil {
		h.writeServiceError(w, err, "checkout error")
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		SessionURL: session.SessionURL,
		OrderRef:   session.OrderRef,
	})
}

type orderStatusResponse struct {
	OrderRef   string  `json:"order_ref"`
	Status     string  `json:"status"`
	HotelID    string  `json:"hotel_id"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	TotalPrice float64 `json:"total_price"`
	Currency   string  `json:"currency"`
}

// GetOrderStatus возвращает статус бронирования для экрана ожидания после
// редиректа с платёжной страницы.
func (h *Handler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderRef := chi.URLParam(r, "orderRef")

	booking, err := h.service.GetBookingStatus(r.Context(), orderRef)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get order status error", zap.Error(err), zap.String("orderRef", orderRef))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, orderStatusResponse{
		OrderRef:   booking.OrderRef,
		Status:     string(booking.Status),
		HotelID:    booking.HotelID,
		CheckIn:    booking.CheckIn,
		CheckOut:   booking.CheckOut,
		TotalPrice: booking.TotalPrice,
		Currency:   booking.Currency,
	})
}

// draftRequest извлекает идентификаторы сессии и черновика из запроса.
func (h *Handler) draftRequest(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return "", uuid.Nil, false
	}

	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return "", uuid.Nil, false
	}

	return sessionID, draftID, true
}

type fieldErrorResponse struct {
	Step    string `json:"step"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// writeServiceError переводит ошибки бизнес-логики в HTTP-статусы.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	var stepErr *wizard.StepError
	if errors.As(err, &stepErr) {
		writeJSON(w, http.StatusUnprocessableEntity, fieldErrorResponse{
			Step:    string(stepErr.Step),
			Field:   stepErr.Field,
			Message: stepErr.Message,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrDraftNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidStayDates),
		errors.Is(err, service.ErrRateNotOffered),
		errors.Is(err, service.ErrNoRateSelected):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: err.Error()})
	case errors.Is(err, inventory.ErrRateUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{Message: "rate is no longer available"})
	case errors.Is(err, service.ErrCheckoutInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrPrebookFailed), errors.Is(err, service.ErrPaymentSession):
		h.logger.Error(logMsg, zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Message: "booking could not be completed, please try again"})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	return v
}
