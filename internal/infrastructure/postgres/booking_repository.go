package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/booking"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/transaction"
)

// pgUniqueViolation は一意制約違反のPostgreSQLエラーコード
const pgUniqueViolation = "23505"

const bookingColumns = `id, reference, user_id, event_id, number_of_seats, total_amount_cents, status, qr_code_data, booked_at, updated_at`

type bookingRow struct {
	ID               string    `db:"id"`
	Reference        string    `db:"reference"`
	UserID           string    `db:"user_id"`
	EventID          string    `db:"event_id"`
	NumberOfSeats    int       `db:"number_of_seats"`
	TotalAmountCents int64     `db:"total_amount_cents"`
	Status           string    `db:"status"`
	QRCodeData       *string   `db:"qr_code_data"`
	BookedAt         time.Time `db:"booked_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID:               r.ID,
		Reference:        r.Reference,
		UserID:           r.UserID,
		EventID:          r.EventID,
		NumberOfSeats:    r.NumberOfSeats,
		TotalAmountCents: r.TotalAmountCents,
		Status:           booking.Status(r.Status),
		QRCodeData:       r.QRCodeData,
		BookedAt:         r.BookedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// BookingRepository は予約台帳のPostgreSQL実装
type BookingRepository struct{ db *sqlx.DB }

// NewBookingRepository はBookingRepositoryを作成する
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は新しい予約を永続化する
// reference の一意制約違反は ErrReferenceAlreadyExists にマップする
//
// PostgreSQLは文エラーでトランザクション全体を失敗状態にするため、
// INSERTをセーブポイントで囲み、衝突後も同一トランザクション内で
// 番号を再生成して再試行できるようにする
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	if _, err := sqlxTx.ExecContext(ctx, "SAVEPOINT booking_insert"); err != nil {
		return fmt.Errorf("セーブポイント作成に失敗しました: %w", err)
	}

	query := `
		INSERT INTO bookings (reference, user_id, event_id, number_of_seats, total_amount_cents, status, booked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query,
		b.Reference, b.UserID, b.EventID, b.NumberOfSeats, b.TotalAmountCents,
		string(b.Status), b.BookedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && string(pgErr.Code) == pgUniqueViolation {
			if _, rbErr := sqlxTx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT booking_insert"); rbErr != nil {
				return fmt.Errorf("セーブポイントへの巻き戻しに失敗しました: %w", rbErr)
			}
			return booking.ErrReferenceAlreadyExists
		}
		return fmt.Errorf("予約作成に失敗しました: %w", err)
	}

	if _, err := sqlxTx.ExecContext(ctx, "RELEASE SAVEPOINT booking_insert"); err != nil {
		return fmt.Errorf("セーブポイント解放に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから予約を取得する
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDAndUserID は所有者を限定してIDから予約を取得する
// 他ユーザーの予約は存在しないものとして扱う
func (r *BookingRepository) GetByIDAndUserID(ctx context.Context, id, userID string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &row, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByReference は予約番号から予約を取得する
func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`
	if err := r.db.GetContext(ctx, &row, query, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// ListByUserID はユーザーの予約一覧を予約日時の降順で取得する
func (r *BookingRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) (*booking.Page, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY booked_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗しました: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("予約件数取得に失敗しました: %w", err)
	}

	bookings := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		bookings[i] = row.toEntity()
	}
	return &booking.Page{Bookings: bookings, TotalCount: total}, nil
}

// UpdateStatus は状態遷移表に従って予約の状態を更新する
// WHERE句に現在の状態からの許可された遷移を含め、競合する更新を排除する
// WHERE句の遷移条件は booking.Booking.CanTransitionTo と一致させること
func (r *BookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3
		  AND (
		        (status = 'PENDING'   AND $1 IN ('CONFIRMED', 'CANCELLED'))
		     OR (status = 'CONFIRMED' AND $1 = 'CANCELLED')
		  )
	`
	result, err := sqlxTx.ExecContext(ctx, query, string(b.Status), b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("予約状態更新に失敗しました: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return booking.ErrInvalidTransition
	}
	return nil
}

// AttachQRCode はQRコードデータを予約に添付する
func (r *BookingRepository) AttachQRCode(ctx context.Context, id, data string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET qr_code_data = $1, updated_at = NOW() WHERE id = $2`, data, id)
	if err != nil {
		return fmt.Errorf("QRコード添付に失敗しました: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

// ListConfirmedWithoutQRCode はQRコード未添付の確定予約を取得する
func (r *BookingRepository) ListConfirmedWithoutQRCode(ctx context.Context, limit int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = 'CONFIRMED' AND qr_code_data IS NULL ORDER BY booked_at LIMIT $1`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("QRコード未添付予約の取得に失敗しました: %w", err)
	}
	bookings := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		bookings[i] = row.toEntity()
	}
	return bookings, nil
}

// SumConfirmedSeatsByEventID はイベントの確定予約座席数の合計を返す
func (r *BookingRepository) SumConfirmedSeatsByEventID(ctx context.Context, eventID string) (int, error) {
	var sum int
	query := `SELECT COALESCE(SUM(number_of_seats), 0) FROM bookings WHERE event_id = $1 AND status = 'CONFIRMED'`
	if err := r.db.GetContext(ctx, &sum, query, eventID); err != nil {
		return 0, fmt.Errorf("確定予約座席数の集計に失敗しました: %w", err)
	}
	return sum, nil
}

var _ booking.Repository = (*BookingRepository)(nil)
