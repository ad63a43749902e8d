package qrcode

import (
	"encoding/base64"
	"fmt"

	qr "github.com/skip2/go-qrcode"
)

// デフォルトのQRコード画像サイズ（ピクセル）
const defaultSize = 300

// BookingFacts はQRコードに埋め込む予約情報
// 同一の入力から常に同一のペイロードが生成される
type BookingFacts struct {
	BookingID     string
	Reference     string
	EventID       string
	EventTitle    string
	UserEmail     string
	NumberOfSeats int
}

// Generator は予約情報からQRコード画像を生成する
type Generator struct {
	size int
}

// NewGenerator はGeneratorを作成する
func NewGenerator() *Generator {
	return &Generator{size: defaultSize}
}

// BuildPayload は予約情報を区切り文字列にシリアライズする
// 決定的な形式のため、同一の予約からは常に同一の文字列が得られる
func BuildPayload(f BookingFacts) string {
	return fmt.Sprintf(
		"BOOKING_ID:%s|REF:%s|EVENT_ID:%s|EVENT:%s|USER:%s|SEATS:%d",
		f.BookingID, f.Reference, f.EventID, f.EventTitle, f.UserEmail, f.NumberOfSeats,
	)
}

// Generate は予約情報からPNG形式のQRコードを生成しbase64で返す
// 失敗してもエラーを返すのみで、呼び出し側の予約処理を妨げない
func (g *Generator) Generate(f BookingFacts) (string, error) {
	png, err := qr.Encode(BuildPayload(f), qr.Medium, g.size)
	if err != nil {
		return "", fmt.Errorf("QRコード生成に失敗しました: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
