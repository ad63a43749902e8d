package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/event"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/transaction"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/pkg/logger"
)

const availabilityCacheTTL = 30 * time.Second

// EventService はイベントカタログのユースケースを提供する
// 作成・更新・削除は管理者専用、一覧・検索は公開
type EventService struct {
	txManager transaction.Manager
	eventRepo event.Repository
	cache     AvailabilityCache
}

// NewEventService は新しいEventServiceを作成する
// cache は nil を許容する
func NewEventService(tm transaction.Manager, er event.Repository, cache AvailabilityCache) *EventService {
	return &EventService{txManager: tm, eventRepo: er, cache: cache}
}

// CreateEventInput はイベント作成の入力
type CreateEventInput struct {
	Title            string
	Description      string
	Category         event.Category
	Venue            string
	City             string
	EventDate        time.Time
	TicketPriceCents int64
	TotalSeats       int
	ImageURL         string
}

// CreateEvent は新しいイベントを作成する
func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(input.Title, input.Description, input.Category, input.Venue, input.City,
		input.EventDate, input.TicketPriceCents, input.TotalSeats, input.ImageURL)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return e, nil
}

// UpdateEventInput はイベント更新の入力
type UpdateEventInput struct {
	ID               string
	Title            string
	Description      string
	Category         event.Category
	Venue            string
	City             string
	EventDate        time.Time
	TicketPriceCents int64
	TotalSeats       int
	ImageURL         string
}

// UpdateEvent はイベントを更新する
//
// 総座席数の変更は予約処理と同じ行ロックで直列化し、予約済み座席数を
// 下回る縮小は拒否する。空席数は予約済み座席数を維持したまま再計算される。
func (s *EventService) UpdateEvent(ctx context.Context, input UpdateEventInput) (*event.Event, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	e, err := s.eventRepo.GetByIDForUpdate(ctx, tx, input.ID)
	if err != nil {
		return nil, err
	}

	e.Title = input.Title
	e.Description = input.Description
	e.Category = input.Category
	e.Venue = input.Venue
	e.City = input.City
	e.EventDate = input.EventDate
	e.TicketPriceCents = input.TicketPriceCents
	e.ImageURL = input.ImageURL
	e.UpdatedAt = time.Now()

	resized := input.TotalSeats != e.TotalSeats
	if resized {
		if err := e.Resize(input.TotalSeats); err != nil {
			return nil, err
		}
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, tx, e); err != nil {
		return nil, err
	}
	if resized {
		if err := s.eventRepo.UpdateSeats(ctx, tx, e); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, e.ID)
	return e, nil
}

// DeactivateEvent はイベントを論理削除する
// 既存の予約は影響を受けず、新規予約のみ不可になる
func (s *EventService) DeactivateEvent(ctx context.Context, id string) error {
	if err := s.eventRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx, id)
	return nil
}

// GetEvent はIDからイベントを取得する
func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// ListEvents は有効なイベント一覧を取得する
func (s *EventService) ListEvents(ctx context.Context, page, size int) (*event.Page, error) {
	limit, offset := normalizePage(page, size)
	return s.eventRepo.ListActive(ctx, limit, offset)
}

// ListUpcomingEvents は開催日が未来のイベント一覧を開催日の昇順で取得する
func (s *EventService) ListUpcomingEvents(ctx context.Context, page, size int) (*event.Page, error) {
	limit, offset := normalizePage(page, size)
	return s.eventRepo.ListUpcoming(ctx, time.Now(), limit, offset)
}

// ListEventsByCategory はカテゴリで絞り込んだイベント一覧を取得する
func (s *EventService) ListEventsByCategory(ctx context.Context, category event.Category, page, size int) (*event.Page, error) {
	if !category.IsValid() {
		return nil, event.ErrInvalidCategory
	}
	limit, offset := normalizePage(page, size)
	return s.eventRepo.ListByCategory(ctx, category, limit, offset)
}

// ListEventsByCity は都市名で絞り込んだイベント一覧を取得する
func (s *EventService) ListEventsByCity(ctx context.Context, city string, page, size int) (*event.Page, error) {
	limit, offset := normalizePage(page, size)
	return s.eventRepo.ListByCity(ctx, city, limit, offset)
}

// SearchEvents はイベント名のキーワード検索を行う
func (s *EventService) SearchEvents(ctx context.Context, keyword string, page, size int) (*event.Page, error) {
	limit, offset := normalizePage(page, size)
	return s.eventRepo.SearchByTitle(ctx, keyword, limit, offset)
}

// ListAvailableEvents は空席があり開催日が未来のイベント一覧を取得する
func (s *EventService) ListAvailableEvents(ctx context.Context, page, size int) (*event.Page, error) {
	limit, offset := normalizePage(page, size)
	return s.eventRepo.ListAvailable(ctx, time.Now(), limit, offset)
}

// GetAvailableSeats はイベントの空席数を返す
// キャッシュを優先し、ミス時はDBから取得してキャッシュへ保存する
func (s *EventService) GetAvailableSeats(ctx context.Context, eventID string) (int, error) {
	if s.cache != nil {
		count, err := s.cache.GetAvailableSeats(ctx, eventID)
		if err == nil {
			return count, nil
		}
	}

	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetAvailableSeats(ctx, eventID, e.AvailableSeats, availabilityCacheTTL); err != nil {
			logger.Warn("空席数キャッシュの保存に失敗しました",
				zap.String("event_id", eventID), zap.Error(err))
		}
	}
	return e.AvailableSeats, nil
}

func (s *EventService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("空席数キャッシュの無効化に失敗しました",
			zap.String("event_id", eventID), zap.Error(err))
	}
}
