// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/safarly/booking-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrBookingExists возвращается при повторной попытке сохранить бронирование
// с уже использованным номером заказа.
var (
	ErrBookingExists = errors.New("booking already exists")
	// ErrBookingNotFound возвращается, если бронирование не найдено.
	ErrBookingNotFound = errors.New("booking not found")
)

// PostgresRepository предоставляет доступ к хранилищу бронирований в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Денежные суммы хранятся в минимальных единицах валюты (халалы для SAR).
func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(v int64) float64 {
	return float64(v) / 100
}

// CreateBooking сохраняет бронирование, отправленное на оплату. Повторная
// вставка того же номера заказа возвращает ErrBookingExists.
func (r *PostgresRepository) CreateBooking(ctx context.Context, b *model.Booking) (int64, error) {
	var id int64

	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO bookings
				(order_ref, hotel_id, book_hash, check_in, check_out, room_count,
				 total_cents, currency, supplier_cents, supplier_currency, promo_code, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 RETURNING id`,
			b.OrderRef, b.HotelID, b.BookHash, b.CheckIn, b.CheckOut, b.RoomCount,
			toCents(b.TotalPrice), b.Currency, toCents(b.SupplierAmount), b.SupplierCurrency,
			nullIfEmpty(b.PromoCode), string(b.Status),
		).Scan(&id)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrBookingExists, b.OrderRef)
		}
		return 0, fmt.Errorf("create booking: %w", err)
	}

	return id, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetBookingByOrderRef возвращает бронирование по номеру заказа.
func (r *PostgresRepository) GetBookingByOrderRef(ctx context.Context, orderRef string) (*model.Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, order_ref, hotel_id, book_hash,
				to_char(check_in, 'YYYY-MM-DD'), to_char(check_out, 'YYYY-MM-DD'),
				room_count, total_cents, currency, supplier_cents, supplier_currency,
				COALESCE(promo_code, ''), status, poll_attempts, created_at
		 FROM bookings
		 WHERE order_ref = $1`,
		orderRef,
	)

	var (
		b             model.Booking
		totalCents    int64
		supplierCents int64
		status        string
	)
	err := row.Scan(&b.ID, &b.OrderRef, &b.HotelID, &b.BookHash,
		&b.CheckIn, &b.CheckOut, &b.RoomCount, &totalCents, &b.Currency,
		&supplierCents, &b.SupplierCurrency, &b.PromoCode, &status,
		&b.PollAttempts, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}

	b.TotalPrice = fromCents(totalCents)
	b.SupplierAmount = fromCents(supplierCents)
	b.Status = model.BookingStatus(status)

	return &b, nil
}

// BookingForPoll описывает бронирование, ожидающее сверки статуса оплаты.
type BookingForPoll struct {
	OrderRef     string
	PollAttempts int
}

// GetPendingBookings возвращает бронирования, для которых нужно запросить
// статус оплаты. Записи с исчерпанным лимитом попыток не возвращаются.
func (r *PostgresRepository) GetPendingBookings(ctx context.Context, limit, maxAttempts int) ([]BookingForPoll, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_ref, poll_attempts
		 FROM bookings
		 WHERE status = $1 AND poll_attempts < $2
		 ORDER BY created_at
		 LIMIT $3`,
		string(model.BookingStatusPending), maxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select pending bookings: %w", err)
	}
	defer rows.Close()

	var res []BookingForPoll
	for rows.Next() {
		var b BookingForPoll
		if err := rows.Scan(&b.OrderRef, &b.PollAttempts); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		res = append(res, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateBookingStatus переводит бронирование в новый статус оплаты.
func (r *PostgresRepository) UpdateBookingStatus(ctx context.Context, orderRef string, status model.BookingStatus) error {
	err := r.withRetry(ctx, func() error {
		_, execErr := r.pool.Exec(ctx,
			`UPDATE bookings SET status = $2, updated_at = now() WHERE order_ref = $1`,
			orderRef, string(status),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// IncrementPollAttempts увеличивает счётчик опросов статуса и возвращает
// новое значение.
func (r *PostgresRepository) IncrementPollAttempts(ctx context.Context, orderRef string) (int, error) {
	var attempts int
	err := r.pool.QueryRow(ctx,
		`UPDATE bookings
		 SET poll_attempts = poll_attempts + 1, updated_at = now()
		 WHERE order_ref = $1
		 RETURNING poll_attempts`,
		orderRef,
	).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBookingNotFound
		}
		return 0, fmt.Errorf("increment poll attempts: %w", err)
	}
	return attempts, nil
}
