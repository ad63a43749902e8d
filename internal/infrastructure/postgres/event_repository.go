package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/event"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/transaction"
)

// pgLockNotAvailable は lock_timeout 超過時のPostgreSQLエラーコード
const pgLockNotAvailable = "55P03"

const eventColumns = `id, title, description, category, venue, city, event_date, ticket_price_cents, total_seats, available_seats, image_url, active, created_at, updated_at`

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID               string    `db:"id"`
	Title            string    `db:"title"`
	Description      *string   `db:"description"`
	Category         string    `db:"category"`
	Venue            string    `db:"venue"`
	City             string    `db:"city"`
	EventDate        time.Time `db:"event_date"`
	TicketPriceCents int64     `db:"ticket_price_cents"`
	TotalSeats       int       `db:"total_seats"`
	AvailableSeats   int       `db:"available_seats"`
	ImageURL         *string   `db:"image_url"`
	Active           bool      `db:"active"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	var desc, imageURL string
	if r.Description != nil {
		desc = *r.Description
	}
	if r.ImageURL != nil {
		imageURL = *r.ImageURL
	}
	return &event.Event{
		ID:               r.ID,
		Title:            r.Title,
		Description:      desc,
		Category:         event.Category(r.Category),
		Venue:            r.Venue,
		City:             r.City,
		EventDate:        r.EventDate,
		TicketPriceCents: r.TicketPriceCents,
		TotalSeats:       r.TotalSeats,
		AvailableSeats:   r.AvailableSeats,
		ImageURL:         imageURL,
		Active:           r.Active,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewEventRepository はEventRepositoryを作成する
// lockTimeout は行ロック取得の待機上限
func NewEventRepository(db *sqlx.DB, lockTimeout time.Duration) *EventRepository {
	return &EventRepository{db: db, lockTimeout: lockTimeout}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (title, description, category, venue, city, event_date, ticket_price_cents, total_seats, available_seats, image_url, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.Title, nullable(e.Description), string(e.Category), e.Venue, e.City, e.EventDate,
		e.TicketPriceCents, e.TotalSeats, e.AvailableSeats, nullable(e.ImageURL), e.Active,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate はイベント行を排他ロックして取得する
// lock_timeout はトランザクション内でのみ有効（SET LOCAL）
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*event.Event, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, fmt.Errorf("トランザクションが不正です")
	}

	if _, err := sqlxTx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
		return nil, fmt.Errorf("ロックタイムアウト設定に失敗しました: %w", err)
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`

	var row eventRow
	err := sqlxTx.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && string(pgErr.Code) == pgLockNotAvailable {
			return nil, event.ErrEventBusy
		}
		return nil, fmt.Errorf("イベント行ロック取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// AdjustAvailableSeats は空席数に差分を適用する
// WHERE句で [0, total_seats] の範囲を保証し、範囲外になる更新は1行も影響しない
func (r *EventRepository) AdjustAvailableSeats(ctx context.Context, tx transaction.Tx, id string, delta int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	query := `
		UPDATE events
		SET available_seats = available_seats + $1, updated_at = NOW()
		WHERE id = $2
		  AND available_seats + $1 >= 0
		  AND available_seats + $1 <= total_seats
	`
	result, err := sqlxTx.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("空席数更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		// 排他ロック下では到達しないはず。到達した場合はロック規律のバグ
		return event.ErrSeatInvariantViolation
	}
	return nil
}

// Update はイベントのメタデータを更新する（座席数・空席数は対象外）
func (r *EventRepository) Update(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	query := `
		UPDATE events
		SET title = $1, description = $2, category = $3, venue = $4, city = $5,
		    event_date = $6, ticket_price_cents = $7, image_url = $8, updated_at = NOW()
		WHERE id = $9
	`
	result, err := sqlxTx.ExecContext(ctx, query,
		e.Title, nullable(e.Description), string(e.Category), e.Venue, e.City,
		e.EventDate, e.TicketPriceCents, nullable(e.ImageURL), e.ID,
	)
	if err != nil {
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// UpdateSeats は総座席数と空席数を更新する
func (r *EventRepository) UpdateSeats(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	query := `UPDATE events SET total_seats = $1, available_seats = $2, updated_at = NOW() WHERE id = $3`
	result, err := sqlxTx.ExecContext(ctx, query, e.TotalSeats, e.AvailableSeats, e.ID)
	if err != nil {
		return fmt.Errorf("座席数更新に失敗しました: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// Deactivate はイベントを論理削除する
func (r *EventRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("イベント無効化に失敗しました: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// ListActive は有効なイベント一覧を作成日時の降順で取得する
func (r *EventRepository) ListActive(ctx context.Context, limit, offset int) (*event.Page, error) {
	return r.listPage(ctx,
		`active = TRUE`, `created_at DESC`, nil, limit, offset)
}

// ListUpcoming は開催日が未来の有効イベント一覧を開催日の昇順で取得する
func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time, limit, offset int) (*event.Page, error) {
	return r.listPage(ctx,
		`active = TRUE AND event_date > $1`, `event_date ASC`, []interface{}{now}, limit, offset)
}

// ListByCategory はカテゴリで絞り込んだ有効イベント一覧を取得する
func (r *EventRepository) ListByCategory(ctx context.Context, category event.Category, limit, offset int) (*event.Page, error) {
	return r.listPage(ctx,
		`active = TRUE AND category = $1`, `event_date ASC`, []interface{}{string(category)}, limit, offset)
}

// ListByCity は都市名（部分一致、大文字小文字無視）で絞り込んだ有効イベント一覧を取得する
func (r *EventRepository) ListByCity(ctx context.Context, city string, limit, offset int) (*event.Page, error) {
	return r.listPage(ctx,
		`active = TRUE AND city ILIKE $1`, `event_date ASC`, []interface{}{"%" + city + "%"}, limit, offset)
}

// SearchByTitle はイベント名のキーワード検索を行う
func (r *EventRepository) SearchByTitle(ctx context.Context, keyword string, limit, offset int) (*event.Page, error) {
	return r.listPage(ctx,
		`active = TRUE AND title ILIKE $1`, `event_date ASC`, []interface{}{"%" + keyword + "%"}, limit, offset)
}

// ListAvailable は空席があり開催日が未来の有効イベント一覧を取得する
func (r *EventRepository) ListAvailable(ctx context.Context, now time.Time, limit, offset int) (*event.Page, error) {
	return r.listPage(ctx,
		`active = TRUE AND available_seats > 0 AND event_date > $1`, `event_date ASC`, []interface{}{now}, limit, offset)
}

// listPage はWHERE句を共有して一覧と総件数を取得する
// WHERE句のプレースホルダは $1 から始め、LIMIT/OFFSETは末尾に割り当てる
func (r *EventRepository) listPage(ctx context.Context, where, orderBy string, filterArgs []interface{}, limit, offset int) (*event.Page, error) {
	n := len(filterArgs)
	listQuery := fmt.Sprintf(`SELECT `+eventColumns+` FROM events WHERE `+where+` ORDER BY `+orderBy+` LIMIT $%d OFFSET $%d`, n+1, n+2)
	args := append(append([]interface{}{}, filterArgs...), limit, offset)

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM events WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, filterArgs...); err != nil {
		return nil, fmt.Errorf("イベント件数取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return &event.Page{Events: events, TotalCount: total}, nil
}

// nullable は空文字列をNULLにマップする
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ event.Repository = (*EventRepository)(nil)
