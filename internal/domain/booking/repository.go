package booking

import (
	"context"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/transaction"
)

// Page はユーザーの予約一覧のページング結果を表す
type Page struct {
	Bookings   []*Booking
	TotalCount int
}

// Repository は予約台帳のインターフェース
type Repository interface {
	// Create は新しい予約を永続化する（トランザクション必須）
	// 予約番号が衝突した場合は ErrReferenceAlreadyExists を返す
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByIDAndUserID は所有者を限定してIDから予約を取得する
	GetByIDAndUserID(ctx context.Context, id, userID string) (*Booking, error)

	// GetByReference は予約番号から予約を取得する（所有者を限定しない）
	GetByReference(ctx context.Context, reference string) (*Booking, error)

	// ListByUserID はユーザーの予約一覧を予約日時の降順で取得する
	ListByUserID(ctx context.Context, userID string, limit, offset int) (*Page, error)

	// UpdateStatus は状態遷移表に従って予約の状態を更新する（トランザクション必須）
	// 許可されていない遷移は ErrInvalidTransition を返す
	UpdateStatus(ctx context.Context, tx transaction.Tx, b *Booking) error

	// AttachQRCode はQRコードデータを予約に添付する（ベストエフォート、トランザクション外）
	AttachQRCode(ctx context.Context, id, data string) error

	// ListConfirmedWithoutQRCode はQRコード未添付の確定予約を取得する
	ListConfirmedWithoutQRCode(ctx context.Context, limit int) ([]*Booking, error)

	// SumConfirmedSeatsByEventID はイベントの確定予約座席数の合計を返す
	SumConfirmedSeatsByEventID(ctx context.Context, eventID string) (int, error)
}
