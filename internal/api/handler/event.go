package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/application"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/event"
)

// EventHandler はイベント関連のハンドラー
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを作成する
func NewEventHandler(s EventServiceInterface) *EventHandler {
	return &EventHandler{service: s}
}

type CreateEventRequest struct {
	Title            string    `json:"title" validate:"required,min=1,max=200" example:"夏フェス2026"`
	Description      string    `json:"description" validate:"max=2000"`
	Category         string    `json:"category" validate:"required" example:"concert"`
	Venue            string    `json:"venue" validate:"required,min=1,max=200" example:"東京ドーム"`
	City             string    `json:"city" validate:"required,min=1,max=100" example:"東京"`
	EventDate        time.Time `json:"event_date" validate:"required"`
	TicketPriceCents int64     `json:"ticket_price_cents" validate:"gte=0" example:"550000"`
	TotalSeats       int       `json:"total_seats" validate:"required,gte=1" example:"500"`
	ImageURL         string    `json:"image_url" validate:"omitempty,url"`
}

type UpdateEventRequest struct {
	Title            string    `json:"title" validate:"required,min=1,max=200"`
	Description      string    `json:"description" validate:"max=2000"`
	Category         string    `json:"category" validate:"required"`
	Venue            string    `json:"venue" validate:"required,min=1,max=200"`
	City             string    `json:"city" validate:"required,min=1,max=100"`
	EventDate        time.Time `json:"event_date" validate:"required"`
	TicketPriceCents int64     `json:"ticket_price_cents" validate:"gte=0"`
	TotalSeats       int       `json:"total_seats" validate:"required,gte=1"`
	ImageURL         string    `json:"image_url" validate:"omitempty,url"`
}

type EventResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Venue            string    `json:"venue"`
	City             string    `json:"city"`
	EventDate        time.Time `json:"event_date"`
	TicketPriceCents int64     `json:"ticket_price_cents"`
	TotalSeats       int       `json:"total_seats"`
	AvailableSeats   int       `json:"available_seats"`
	ImageURL         string    `json:"image_url,omitempty"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

type EventPageResponse struct {
	Events     []EventResponse `json:"events"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	Size       int             `json:"size"`
}

type AvailabilityResponse struct {
	EventID        string `json:"event_id"`
	AvailableSeats int    `json:"available_seats"`
}

func toEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID: e.ID, Title: e.Title, Description: e.Description,
		Category: string(e.Category), Venue: e.Venue, City: e.City,
		EventDate: e.EventDate, TicketPriceCents: e.TicketPriceCents,
		TotalSeats: e.TotalSeats, AvailableSeats: e.AvailableSeats,
		ImageURL: e.ImageURL, Active: e.Active, CreatedAt: e.CreatedAt,
	}
}

func toEventPageResponse(p *event.Page, page, size int) EventPageResponse {
	events := make([]EventResponse, len(p.Events))
	for i, e := range p.Events {
		events[i] = toEventResponse(e)
	}
	return EventPageResponse{Events: events, TotalCount: p.TotalCount, Page: page, Size: size}
}

// pageParams はクエリからページ番号とサイズを取得する
func pageParams(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	return page, size
}

// Create godoc
// @Summary イベントを作成
// @Description 新しいイベントを作成します（管理者専用）
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.service.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Title: req.Title, Description: req.Description,
		Category: event.Category(req.Category), Venue: req.Venue, City: req.City,
		EventDate: req.EventDate, TicketPriceCents: req.TicketPriceCents,
		TotalSeats: req.TotalSeats, ImageURL: req.ImageURL,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// Update godoc
// @Summary イベントを更新
// @Description イベントを更新します。総座席数の縮小は予約済み座席数を下回れません（管理者専用）
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "イベントID"
// @Param request body UpdateEventRequest true "イベント情報"
// @Success 200 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.service.UpdateEvent(c.Request().Context(), application.UpdateEventInput{
		ID: c.Param("id"), Title: req.Title, Description: req.Description,
		Category: event.Category(req.Category), Venue: req.Venue, City: req.City,
		EventDate: req.EventDate, TicketPriceCents: req.TicketPriceCents,
		TotalSeats: req.TotalSeats, ImageURL: req.ImageURL,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Delete godoc
// @Summary イベントを削除
// @Description イベントを論理削除します。既存の予約は維持されます（管理者専用）
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "イベントID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.service.DeactivateEvent(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetByID godoc
// @Summary イベントを取得
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	e, err := h.service.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Description 有効なイベント一覧を作成日時の降順で取得します
// @Tags events
// @Produce json
// @Param page query int false "ページ番号（0始まり）" default(0)
// @Param size query int false "ページサイズ" default(10)
// @Success 200 {object} EventPageResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	page, size := pageParams(c)
	p, err := h.service.ListEvents(c.Request().Context(), page, size)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventPageResponse(p, page, size))
}

// ListUpcoming godoc
// @Summary 開催予定のイベント一覧を取得
// @Tags events
// @Produce json
// @Param page query int false "ページ番号（0始まり）" default(0)
// @Param size query int false "ページサイズ" default(10)
// @Success 200 {object} EventPageResponse
// @Router /events/upcoming [get]
func (h *EventHandler) ListUpcoming(c echo.Context) error {
	page, size := pageParams(c)
	p, err := h.service.ListUpcomingEvents(c.Request().Context(), page, size)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventPageResponse(p, page, size))
}

// ListByCategory godoc
// @Summary カテゴリでイベントを絞り込み
// @Tags events
// @Produce json
// @Param category path string true "カテゴリ" Enums(concert, conference, sports, theater, workshop, other)
// @Param page query int false "ページ番号（0始まり）" default(0)
// @Param size query int false "ページサイズ" default(10)
// @Success 200 {object} EventPageResponse
// @Failure 400 {object} map[string]string
// @Router /events/category/{category} [get]
func (h *EventHandler) ListByCategory(c echo.Context) error {
	page, size := pageParams(c)
	p, err := h.service.ListEventsByCategory(c.Request().Context(), event.Category(c.Param("category")), page, size)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventPageResponse(p, page, size))
}

// ListByCity godoc
// @Summary 都市名でイベントを絞り込み
// @Tags events
// @Produce json
// @Param city path string true "都市名（部分一致）"
// @Param page query int false "ページ番号（0始まり）" default(0)
// @Param size query int false "ページサイズ" default(10)
// @Success 200 {object} EventPageResponse
// @Router /events/city/{city} [get]
func (h *EventHandler) ListByCity(c echo.Context) error {
	page, size := pageParams(c)
	p, err := h.service.ListEventsByCity(c.Request().Context(), c.Param("city"), page, size)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventPageResponse(p, page, size))
}

// Search godoc
// @Summary イベント名でキーワード検索
// @Tags events
// @Produce json
// @Param keyword query string true "検索キーワード"
// @Param page query int false "ページ番号（0始まり）" default(0)
// @Param size query int false "ページサイズ" default(10)
// @Success 200 {object} EventPageResponse
// @Router /events/search [get]
func (h *EventHandler) Search(c echo.Context) error {
	page, size := pageParams(c)
	p, err := h.service.SearchEvents(c.Request().Context(), c.QueryParam("keyword"), page, size)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventPageResponse(p, page, size))
}

// ListAvailable godoc
// @Summary 空席のあるイベント一覧を取得
// @Description 空席があり開催日が未来の有効イベント一覧を取得します
// @Tags events
// @Produce json
// @Param page query int false "ページ番号（0始まり）" default(0)
// @Param size query int false "ページサイズ" default(10)
// @Success 200 {object} EventPageResponse
// @Router /events/available [get]
func (h *EventHandler) ListAvailable(c echo.Context) error {
	page, size := pageParams(c)
	p, err := h.service.ListAvailableEvents(c.Request().Context(), page, size)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventPageResponse(p, page, size))
}

// GetAvailability godoc
// @Summary イベントの空席数を取得
// @Description 空席数を返します。キャッシュがあればキャッシュを優先します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id}/availability [get]
func (h *EventHandler) GetAvailability(c echo.Context) error {
	id := c.Param("id")
	count, err := h.service.GetAvailableSeats(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{EventID: id, AvailableSeats: count})
}
