package event

import (
	"context"
	"time"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/transaction"
)

// Page はページング結果を表す
type Page struct {
	Events     []*Event
	TotalCount int
}

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// GetByIDForUpdate はイベント行を排他ロックして取得する（トランザクション必須）
	// ロック待機が上限を超えた場合は ErrEventBusy を返す
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Event, error)

	// AdjustAvailableSeats は空席数に差分を適用する（排他ロック保持中のみ呼び出し可）
	// 結果が [0, total_seats] の範囲外になる場合は ErrSeatInvariantViolation を返す
	AdjustAvailableSeats(ctx context.Context, tx transaction.Tx, id string, delta int) error

	// Update はイベントを更新する（空席数は対象外）
	Update(ctx context.Context, tx transaction.Tx, event *Event) error

	// UpdateSeats は総座席数と空席数を更新する（排他ロック保持中のみ呼び出し可）
	UpdateSeats(ctx context.Context, tx transaction.Tx, event *Event) error

	// Deactivate はイベントを論理削除する
	Deactivate(ctx context.Context, id string) error

	// ListActive は有効なイベント一覧を作成日時の降順で取得する
	ListActive(ctx context.Context, limit, offset int) (*Page, error)

	// ListUpcoming は開催日が未来の有効イベント一覧を開催日の昇順で取得する
	ListUpcoming(ctx context.Context, now time.Time, limit, offset int) (*Page, error)

	// ListByCategory はカテゴリで絞り込んだ有効イベント一覧を取得する
	ListByCategory(ctx context.Context, category Category, limit, offset int) (*Page, error)

	// ListByCity は都市名（部分一致、大文字小文字無視）で絞り込んだ有効イベント一覧を取得する
	ListByCity(ctx context.Context, city string, limit, offset int) (*Page, error)

	// SearchByTitle はイベント名のキーワード検索を行う
	SearchByTitle(ctx context.Context, keyword string, limit, offset int) (*Page, error)

	// ListAvailable は空席があり開催日が未来の有効イベント一覧を取得する
	ListAvailable(ctx context.Context, now time.Time, limit, offset int) (*Page, error)
}
