// Package service реализует бизнес-логику сервиса бронирования.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/safarly/booking-system/internal/inventory"
	"github.com/safarly/booking-system/internal/model"
	"github.com/safarly/booking-system/internal/payment"
	"github.com/safarly/booking-system/internal/rates"
	"github.com/safarly/booking-system/internal/repository"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateBooking(ctx context.Context, b *model.Booking) (int64, error)
	GetBookingByOrderRef(ctx context.Context, orderRef string) (*model.Booking, error)
	GetPendingBookings(ctx context.Context, limit, maxAttempts int) ([]repository.BookingForPoll, error)
	UpdateBookingStatus(ctx context.Context, orderRef string, status model.BookingStatus) error
	IncrementPollAttempts(ctx context.Context, orderRef string) (int, error)
}

// InventoryClient описывает контракт фида отелей и тарифов.
type InventoryClient interface {
	SearchHotels(ctx context.Context, destination string, page, pageSize int) (*inventory.SearchResult, error)
	GetHotelDetails(ctx context.Context, hotelID string) (*model.Hotel, error)
	PrebookRate(ctx context.Context, req inventory.PrebookRequest) (*model.PrebookResult, error)
}

// PromoClient описывает контракт сервиса проверки промокодов.
type PromoClient interface {
	Validate(ctx context.Context, code string, bookingValue float64, hotelID, destination, userID string) (*model.PromoCodeResult, error)
}

// PaymentClient описывает контракт платёжного шлюза.
type PaymentClient interface {
	CreateSession(ctx context.Context, payload payment.BookingPayload) (*model.CheckoutSession, error)
	GetOrderStatus(ctx context.Context, orderRef string) (*payment.OrderStatus, error)
}

const hotelCacheTTL = 2 * time.Minute

// Service содержит бизнес-логику сервиса бронирования.
type Service struct {
	repo      Repository
	inventory InventoryClient
	promo     PromoClient
	payment   PaymentClient
	cache     *redis.Client
	logger    *zap.Logger
	drafts    *DraftStore
}

// NewService создаёт сервис с указанными репозиторием и внешними клиентами.
// Кеш не обязателен: при nil все запросы идут напрямую в фид.
func NewService(repo Repository, inv InventoryClient, promo PromoClient, pay PaymentClient, cache *redis.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:      repo,
		inventory: inv,
		promo:     promo,
		payment:   pay,
		cache:     cache,
		logger:    logger,
		drafts:    NewDraftStore(),
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// SearchHotels возвращает страницу отелей по направлению.
func (s *Service) SearchHotels(ctx context.Context, destination string, page, pageSize int) (*inventory.SearchResult, error) {
	return s.inventory.SearchHotels(ctx, destination, page, pageSize)
}

// GetHotelDetails возвращает карточку отеля и тарифы, сгруппированные по
// нормализованному названию номера. Карточка ненадолго кешируется в Redis;
// сбой кеша не мешает походу в фид.
func (s *Service) GetHotelDetails(ctx context.Context, hotelID string) (*model.Hotel, []model.RateGroup, error) {
	hotel, err := s.hotelDetails(ctx, hotelID)
	if err != nil {
		return nil, nil, err
	}

	return hotel, rates.Group(hotel.Rates), nil
}

func (s *Service) hotelDetails(ctx context.Context, hotelID string) (*model.Hotel, error) {
	cacheKey := "hotel:" + hotelID

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var hotel model.Hotel
			if unmarshalErr := json.Unmarshal(raw, &hotel); unmarshalErr == nil {
				return &hotel, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("hotel cache read error", zap.Error(err), zap.String("hotelID", hotelID))
		}
	}

	hotel, err := s.inventory.GetHotelDetails(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("get hotel details: %w", err)
	}

	if s.cache != nil {
		if raw, marshalErr := json.Marshal(hotel); marshalErr == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, hotelCacheTTL).Err(); err != nil {
				s.logger.Warn("hotel cache write error", zap.Error(err), zap.String("hotelID", hotelID))
			}
		}
	}

	return hotel, nil
}

// GetBookingStatus возвращает сохранённый статус бронирования для
// постредиректного экрана ожидания.
func (s *Service) GetBookingStatus(ctx context.Context, orderRef string) (*model.Booking, error) {
	return s.repo.GetBookingByOrderRef(ctx, orderRef)
}
