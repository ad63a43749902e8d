package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/api/middleware"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/application"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/booking"
)

// BookingHandler は予約関連のハンドラー
type BookingHandler struct {
	service BookingServiceInterface
}

// NewBookingHandler はBookingHandlerを作成する
func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type CreateBookingRequest struct {
	EventID       string `json:"event_id" validate:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	NumberOfSeats int    `json:"number_of_seats" validate:"required,gte=1" example:"2"`
}

type BookingResponse struct {
	ID               string    `json:"id"`
	Reference        string    `json:"reference"`
	EventID          string    `json:"event_id"`
	NumberOfSeats    int       `json:"number_of_seats"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	Status           string    `json:"status"`
	QRCodeData       *string   `json:"qr_code_data,omitempty"`
	BookedAt         time.Time `json:"booked_at"`
}

type BookingPageResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, Reference: b.Reference, EventID: b.EventID,
		NumberOfSeats: b.NumberOfSeats, TotalAmountCents: b.TotalAmountCents,
		Status: string(b.Status), QRCodeData: b.QRCodeData, BookedAt: b.BookedAt,
	}
}

// userIDFrom は認証クレームからユーザーIDを取得する
func userIDFrom(c echo.Context) (string, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok || claims.Subject == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが必要です")
	}
	return claims.Subject, nil
}

// Create godoc
// @Summary 予約を作成
// @Description 空席を検証して予約を確定します。在庫ロックが混雑している場合は 409 を返すため、リトライしてください
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string "空席不足・無効イベント"
// @Failure 409 {object} map[string]string "在庫ロック競合"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		EventID: req.EventID, UserID: userID, NumberOfSeats: req.NumberOfSeats,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約を取得
// @Description ログインユーザー自身の予約のみ取得できます
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetByReference godoc
// @Summary 予約番号から予約を取得
// @Description 会場での照合用に予約番号で予約を検索します
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param reference path string true "予約番号" example(BKG-1A2B3C4D)
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/reference/{reference} [get]
func (h *BookingHandler) GetByReference(c echo.Context) error {
	b, err := h.service.GetBookingByReference(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// ListMine godoc
// @Summary 自分の予約一覧を取得
// @Description ログインユーザーの予約一覧を予約日時の降順で取得します
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param page query int false "ページ番号（0始まり）" default(0)
// @Param size query int false "ページサイズ" default(10)
// @Success 200 {object} BookingPageResponse
// @Router /bookings/my [get]
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	page, size := pageParams(c)
	p, err := h.service.ListUserBookings(c.Request().Context(), userID, page, size)
	if err != nil {
		return toHTTPError(err)
	}
	bookings := make([]BookingResponse, len(p.Bookings))
	for i, b := range p.Bookings {
		bookings[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, BookingPageResponse{
		Bookings: bookings, TotalCount: p.TotalCount, Page: page, Size: size,
	})
}

// QRResponse は予約のQRコード取得結果
type QRResponse struct {
	BookingID  string `json:"booking_id"`
	Reference  string `json:"reference"`
	QRCodeData string `json:"qr_code_data"`
}

// GetQR godoc
// @Summary 予約のQRコードを取得
// @Description 入場用QRコード（base64 PNG）を取得します。生成前の場合は 404 を返します
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {object} QRResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/{id}/qr [get]
func (h *BookingHandler) GetQR(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return toHTTPError(err)
	}
	if b.QRCodeData == nil {
		return echo.NewHTTPError(http.StatusNotFound, "QRコードはまだ生成されていません")
	}
	return c.JSON(http.StatusOK, QRResponse{
		BookingID: b.ID, Reference: b.Reference, QRCodeData: *b.QRCodeData,
	})
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、座席を在庫へ戻します
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} map[string]string "キャンセル済み"
// @Failure 404 {object} map[string]string
// @Router /bookings/{id}/cancel [put]
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	b, err := h.service.CancelBooking(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}
