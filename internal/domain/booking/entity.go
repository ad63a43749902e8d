package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status は予約の状態を表す
type Status string

const (
	// StatusPending は支払いフロー導入時のために予約されている状態
	// 現在この状態を生成するコードパスは存在しない
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// referencePrefix は予約番号の固定プレフィックス
const referencePrefix = "BKG-"

// Booking は予約エンティティを表す
type Booking struct {
	ID               string
	Reference        string
	UserID           string
	EventID          string
	NumberOfSeats    int
	TotalAmountCents int64
	Status           Status
	QRCodeData       *string
	BookedAt         time.Time
	UpdatedAt        time.Time
}

// NewBooking は確定状態の新しい予約を作成する
// 金額はイベントの現在価格からスナップショットとして計算する
func NewBooking(eventID, userID string, numberOfSeats int, ticketPriceCents int64) *Booking {
	now := time.Now()
	return &Booking{
		Reference:        NewReference(),
		UserID:           userID,
		EventID:          eventID,
		NumberOfSeats:    numberOfSeats,
		TotalAmountCents: ticketPriceCents * int64(numberOfSeats),
		Status:           StatusConfirmed,
		BookedAt:         now,
		UpdatedAt:        now,
	}
}

// NewReference は予約番号を生成する
// 固定プレフィックス + UUID先頭8文字（大文字）
func NewReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return referencePrefix + suffix
}

// RegenerateReference は衝突時に予約番号を再生成する
func (b *Booking) RegenerateReference() {
	b.Reference = NewReference()
}

// IsCancelled は予約がキャンセル済みかを返す
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// Cancel は予約をキャンセルする
// キャンセル済みの予約は再度キャンセルできない
func (b *Booking) Cancel() error {
	if b.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	b.Status = StatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

// CanTransitionTo は状態遷移が許可されているかを返す
func (b *Booking) CanTransitionTo(next Status) bool {
	switch b.Status {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	case StatusCancelled:
		return false
	}
	return false
}

// AttachQRCode はQRコードデータを添付する
func (b *Booking) AttachQRCode(data string) {
	b.QRCodeData = &data
	b.UpdatedAt = time.Now()
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.EventID == "" {
		return ErrEventIDRequired
	}
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.NumberOfSeats < 1 {
		return ErrInvalidSeatCount
	}
	if !strings.HasPrefix(b.Reference, referencePrefix) {
		return fmt.Errorf("予約番号の形式が不正です: %s", b.Reference)
	}
	return nil
}
