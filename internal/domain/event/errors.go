package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound          = errors.New("イベントが見つかりません")
	ErrEventInactive          = errors.New("イベントは予約を受け付けていません")
	ErrEventBusy              = errors.New("イベントの在庫ロックを取得できませんでした")
	ErrTitleRequired          = errors.New("イベント名は必須です")
	ErrVenueRequired          = errors.New("会場は必須です")
	ErrCityRequired           = errors.New("都市は必須です")
	ErrInvalidCategory        = errors.New("カテゴリが不正です")
	ErrInvalidTicketPrice     = errors.New("チケット価格は0以上である必要があります")
	ErrInvalidTotalSeats      = errors.New("座席数は1以上である必要があります")
	ErrTotalSeatsBelowBooked  = errors.New("総座席数を予約済み座席数より少なくすることはできません")
	ErrSeatInvariantViolation = errors.New("空席数が不変条件に違反しています")
)
