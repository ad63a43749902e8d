package booking

import (
	"errors"
	"fmt"
)

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound           = errors.New("予約が見つかりません")
	ErrAlreadyCancelled          = errors.New("予約は既にキャンセルされています")
	ErrInvalidTransition         = errors.New("許可されていない状態遷移です")
	ErrReferenceAlreadyExists    = errors.New("同じ予約番号が既に存在します")
	ErrEventIDRequired           = errors.New("イベントIDは必須です")
	ErrUserIDRequired            = errors.New("ユーザーIDは必須です")
	ErrInvalidSeatCount          = errors.New("座席数は1以上である必要があります")
	ErrReferenceRetriesExhausted = errors.New("予約番号の再生成回数が上限に達しました")
)

// InsufficientSeatsError は空席不足を表すエラー
// クライアント表示用に実際の空席数を保持する
type InsufficientSeatsError struct {
	Available int
	Requested int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("空席が不足しています（空席: %d, リクエスト: %d）", e.Available, e.Requested)
}

// IsInsufficientSeats はerrがInsufficientSeatsErrorかを判定する
func IsInsufficientSeats(err error) (*InsufficientSeatsError, bool) {
	var ise *InsufficientSeatsError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}
