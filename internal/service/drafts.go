package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safarly/booking-system/internal/model"
	"github.com/safarly/booking-system/internal/pricing"
	"github.com/safarly/booking-system/internal/validation"
	"github.com/safarly/booking-system/internal/wizard"
)

// ErrDraftNotFound возвращается, если черновик не найден или принадлежит другой сессии.
var (
	ErrDraftNotFound = errors.New("draft not found")
	// ErrNoRateSelected возвращается при операции, требующей выбранного тарифа.
	ErrNoRateSelected = errors.New("no rate selected")
	// ErrRateNotOffered возвращается, если тариф не предлагается отелем черновика.
	ErrRateNotOffered = errors.New("rate is not offered by this hotel")
	// ErrInvalidStayDates возвращается при некорректном диапазоне дат проживания.
	ErrInvalidStayDates = errors.New("invalid stay dates")
)

const (
	draftTTL             = 30 * time.Minute
	draftCleanupInterval = 1 * time.Minute

	promoUnavailableMessage = "promo validation is temporarily unavailable, please try again"
)

// Draft — изменяемое состояние активного бронирования: выбранные тарифы,
// анкета гостя и промокод. Живёт только в памяти и ни одним полем не
// сохраняется на сервере до отправки на оплату.
type Draft struct {
	ID          uuid.UUID
	SessionID   string
	HotelID     string
	HotelName   string
	Destination string
	CheckIn     string
	CheckOut    string

	Selection *model.RateSelection
	Wizard    *wizard.Wizard

	PromoCode string
	Promo     *model.PromoCodeResult

	rates     map[string]model.RoomRate
	inFlight  bool
	touchedAt time.Time

	mu sync.Mutex
}

// SelectedRate — позиция выбора черновика: тариф и количество номеров.
type SelectedRate struct {
	Rate  model.RoomRate
	Count int
}

// DraftView — согласованный снимок черновика для отдачи наружу.
type DraftView struct {
	ID          uuid.UUID
	HotelID     string
	HotelName   string
	Destination string
	CheckIn     string
	CheckOut    string

	CurrentStep wizard.Step
	Steps       []wizard.Step
	Form        wizard.Form

	Rooms []SelectedRate

	PromoCode string
	Promo     *model.PromoCodeResult
}

// View снимает снимок черновика под мьютексом.
func (d *Draft) View() DraftView {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := DraftView{
		ID:          d.ID,
		HotelID:     d.HotelID,
		HotelName:   d.HotelName,
		Destination: d.Destination,
		CheckIn:     d.CheckIn,
		CheckOut:    d.CheckOut,
		CurrentStep: d.Wizard.Current(),
		Steps:       d.Wizard.Steps(),
		Form:        d.Wizard.Form,
		PromoCode:   d.PromoCode,
	}

	for _, hash := range d.Selection.Hashes() {
		v.Rooms = append(v.Rooms, SelectedRate{
			Rate:  d.rates[hash],
			Count: d.Selection.Count(hash),
		})
	}

	if d.Promo != nil {
		promoCopy := *d.Promo
		v.Promo = &promoCopy
	}

	return v
}

// DraftStore хранит черновики бронирований в памяти процесса.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]*Draft
}

// NewDraftStore создаёт пустое хранилище черновиков.
func NewDraftStore() *DraftStore {
	return &DraftStore{
		drafts: make(map[uuid.UUID]*Draft),
	}
}

// Put сохраняет черновик.
func (ds *DraftStore) Put(d *Draft) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.drafts[d.ID] = d
}

// Get возвращает черновик по идентификатору.
func (ds *DraftStore) Get(id uuid.UUID) (*Draft, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	d, ok := ds.drafts[id]
	return d, ok
}

// Delete удаляет черновик.
func (ds *DraftStore) Delete(id uuid.UUID) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.drafts, id)
}

func (ds *DraftStore) sweep(olderThan time.Duration) int {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	removed := 0
	deadline := time.Now().Add(-olderThan)
	for id, d := range ds.drafts {
		d.mu.Lock()
		expired := d.touchedAt.Before(deadline) && !d.inFlight
		d.mu.Unlock()

		if expired {
			delete(ds.drafts, id)
			removed++
		}
	}

	return removed
}

// StartDraftCleanup запускает фоновую очистку брошенных черновиков.
func (s *Service) StartDraftCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(draftCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.drafts.sweep(draftTTL); removed > 0 {
					s.logger.Info("abandoned drafts removed", zap.Int("count", removed))
				}
			}
		}
	}()
}

// CreateDraftParams описывает параметры создания черновика бронирования.
type CreateDraftParams struct {
	HotelID         string
	CheckIn         string
	CheckOut        string
	PreselectedRate string
	RoomCount       int
}

// CreateDraft создаёт черновик бронирования для отеля. При переданном
// match-хеше тариф выбирается сразу, и анкета строится для входа с
// предвыбранным тарифом.
func (s *Service) CreateDraft(ctx context.Context, sessionID string, p CreateDraftParams) (*Draft, error) {
	if !validation.IsValidStayRange(p.CheckIn, p.CheckOut) {
		return nil, ErrInvalidStayDates
	}

	hotel, err := s.hotelDetails(ctx, p.HotelID)
	if err != nil {
		return nil, err
	}

	d := &Draft{
		ID:          uuid.New(),
		SessionID:   sessionID,
		HotelID:     hotel.ID,
		HotelName:   hotel.Name,
		Destination: hotel.Destination,
		CheckIn:     p.CheckIn,
		CheckOut:    p.CheckOut,
		Selection:   model.NewRateSelection(),
		Wizard:      wizard.New(p.PreselectedRate != ""),
		rates:       make(map[string]model.RoomRate),
		touchedAt:   time.Now(),
	}

	if p.PreselectedRate != "" {
		rate, ok := findRate(hotel.Rates, p.PreselectedRate)
		if !ok {
			return nil, ErrRateNotOffered
		}

		count := p.RoomCount
		if count < 1 {
			count = 1
		}

		d.Selection.Set(rate.MatchHash, count)
		d.rates[rate.MatchHash] = rate
	}

	s.drafts.Put(d)

	return d, nil
}

func findRate(list []model.RoomRate, matchHash string) (model.RoomRate, bool) {
	for _, r := range list {
		if r.MatchHash == matchHash {
			return r, true
		}
	}
	return model.RoomRate{}, false
}

// getOwnedDraft возвращает черновик, принадлежащий сессии. Чужие черновики
// неотличимы от несуществующих.
func (s *Service) getOwnedDraft(draftID uuid.UUID, sessionID string) (*Draft, error) {
	d, ok := s.drafts.Get(draftID)
	if !ok || d.SessionID != sessionID {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// GetDraft возвращает черновик текущей сессии.
func (s *Service) GetDraft(sessionID string, draftID uuid.UUID) (*Draft, error) {
	return s.getOwnedDraft(draftID, sessionID)
}

// SelectRate добавляет тариф в выбор черновика или меняет количество номеров.
// Смена выбора делает сохранённый результат промокода устаревшим, поэтому он
// сбрасывается немедленно.
func (s *Service) SelectRate(ctx context.Context, sessionID string, draftID uuid.UUID, matchHash string, count int) error {
	d, err := s.getOwnedDraft(draftID, sessionID)
	if err != nil {
		return err
	}

	hotel, err := s.hotelDetails(ctx, d.HotelID)
	if err != nil {
		return err
	}

	rate, ok := findRate(hotel.Rates, matchHash)
	if !ok {
		return ErrRateNotOffered
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.Selection.Set(rate.MatchHash, count)
	if d.Selection.Count(rate.MatchHash) > 0 {
		d.rates[rate.MatchHash] = rate
	} else {
		delete(d.rates, rate.MatchHash)
	}
	d.Promo = nil
	d.PromoCode = ""
	d.touchedAt = time.Now()

	return nil
}

// DeselectRate убирает тариф из выбора черновика.
func (s *Service) DeselectRate(sessionID string, draftID uuid.UUID, matchHash string) error {
	d, err := s.getOwnedDraft(draftID, sessionID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.Selection.Remove(matchHash)
	delete(d.rates, matchHash)
	d.Promo = nil
	d.PromoCode = ""
	d.touchedAt = time.Now()

	return nil
}

// AdvanceWizard применяет изменения полей текущего шага и продвигает анкету
// вперёд. Переход не выполняет сетевых вызовов.
func (s *Service) AdvanceWizard(sessionID string, draftID uuid.UUID, patch wizard.FormPatch) (wizard.Step, error) {
	d, err := s.getOwnedDraft(draftID, sessionID)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.Wizard.Apply(patch)
	d.touchedAt = time.Now()

	if err := d.Wizard.Next(); err != nil {
		return d.Wizard.Current(), err
	}

	return d.Wizard.Current(), nil
}

// RewindWizard возвращает анкету на предыдущий шаг без валидации.
func (s *Service) RewindWizard(sessionID string, draftID uuid.UUID) (wizard.Step, error) {
	d, err := s.getOwnedDraft(draftID, sessionID)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.Wizard.Previous()
	d.touchedAt = time.Now()

	return d.Wizard.Current(), nil
}

// AddGuest добавляет дополнительного гостя в анкету черновика.
func (s *Service) AddGuest(sessionID string, draftID uuid.UUID, name, phone string) error {
	d, err := s.getOwnedDraft(draftID, sessionID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.touchedAt = time.Now()
	return d.Wizard.AddGuest(name, phone)
}

// RemoveGuest удаляет гостя анкеты по позиции.
func (s *Service) RemoveGuest(sessionID string, draftID uuid.UUID, index int) error {
	d, err := s.getOwnedDraft(draftID, sessionID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.touchedAt = time.Now()
	return d.Wizard.RemoveGuest(index)
}

// QuoteDraft возвращает актуальную разбивку стоимости черновика с учётом
// действующего промокода.
func (s *Service) QuoteDraft(sessionID string, draftID uuid.UUID) (pricing.Quote, error) {
	d, err := s.getOwnedDraft(draftID, sessionID)
	if err != nil {
		return pricing.Quote{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Selection.Len() == 0 {
		return pricing.Quote{}, ErrNoRateSelected
	}

	return pricing.ApplyPromo(d.quoteLocked(), d.Promo), nil
}

// quoteLocked считает разбивку стоимости по выбору черновика без промокода.
// Вызывается строго под мьютексом черновика.
func (d *Draft) quoteLocked() pricing.Quote {
	var q pricing.Quote
	for i, hash := range d.Selection.Hashes() {
		entry := pricing.ComputeTotal(d.rates[hash], d.Selection.Count(hash), nil)
		if i == 0 {
			q = entry
		} else {
			q = pricing.Merge(q, entry)
		}
	}
	return q
}

// ApplyPromo проверяет промокод против текущей стоимости бронирования.
// Редактирование кода немедленно сбрасывает прежний результат. Недоступность
// сервиса правил не является ошибкой оформления: возвращается отказ с общим
// сообщением, и пользователь может продолжить без кода.
func (s *Service) ApplyPromo(ctx context.Context, sessionID string, draftID uuid.UUID, code, userID string) (*model.PromoCodeResult, error) {
	d, err := s.getOwnedDraft(draftID, sessionID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()

	if code != d.PromoCode {
		d.Promo = nil
	}
	d.PromoCode = code
	d.touchedAt = time.Now()

	if d.Selection.Len() == 0 {
		d.mu.Unlock()
		return nil, ErrNoRateSelected
	}

	// Базой для серверного правила служит полная стоимость до скидки.
	bookingValue := d.quoteLocked().Total
	hotelID := d.HotelID
	destination := d.Destination

	d.mu.Unlock()

	result, err := s.promo.Validate(ctx, code, bookingValue, hotelID, destination, userID)
	if err != nil {
		s.logger.Warn("promo validation error", zap.Error(err), zap.String("code", code))
		result = &model.PromoCodeResult{
			Valid:   false,
			Code:    code,
			Message: promoUnavailableMessage,
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Пока шёл запрос, пользователь мог отредактировать код: устаревший
	// результат не сохраняется.
	if d.PromoCode != code {
		return result, nil
	}
	d.Promo = result

	return result, nil
}

// ClearPromo сбрасывает промокод черновика.
func (s *Service) ClearPromo(sessionID string, draftID uuid.UUID) error {
	d, err := s.getOwnedDraft(draftID, sessionID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.Promo = nil
	d.PromoCode = ""
	d.touchedAt = time.Now()

	return nil
}
