package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/booking"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/event"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/transaction"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/user"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/infrastructure/queue"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/pkg/logger"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/pkg/metrics"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/qrcode"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// BookingService は予約のユースケースを提供する
// 座席在庫の更新はイベント行の排他ロック下でのみ行う
type BookingService struct {
	txManager           transaction.Manager
	bookingRepo         booking.Repository
	eventRepo           event.Repository
	userRepo            user.Repository
	qrGenerator         QRGenerator
	cache               AvailabilityCache
	publisher           BookingEventPublisher
	maxReferenceRetries int
}

// NewBookingService は新しいBookingServiceを作成する
// cache と publisher は nil を許容する（機能が無効な構成向け）
func NewBookingService(
	tm transaction.Manager,
	br booking.Repository,
	er event.Repository,
	ur user.Repository,
	qg QRGenerator,
	cache AvailabilityCache,
	pub BookingEventPublisher,
	maxReferenceRetries int,
) *BookingService {
	if maxReferenceRetries < 1 {
		maxReferenceRetries = 1
	}
	return &BookingService{
		txManager:           tm,
		bookingRepo:         br,
		eventRepo:           er,
		userRepo:            ur,
		qrGenerator:         qg,
		cache:               cache,
		publisher:           pub,
		maxReferenceRetries: maxReferenceRetries,
	}
}

// CreateBookingInput は予約作成の入力
type CreateBookingInput struct {
	EventID       string
	UserID        string
	NumberOfSeats int
}

// CreateBooking は予約を作成する
//
// イベント行を排他ロックした上で空席を検証し、予約作成と在庫減算を
// 同一トランザクションで行う。ロック待機が上限を超えた場合は
// event.ErrEventBusy を返し、クライアントはリトライできる。
// QRコード生成・キャッシュ無効化・イベント配信はコミット後の
// ベストエフォートであり、失敗しても予約は成立する。
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, error) {
	if input.NumberOfSeats < 1 {
		return nil, booking.ErrInvalidSeatCount
	}

	lockStart := time.Now()

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 排他ロック下でイベントを取得
	ev, err := s.eventRepo.GetByIDForUpdate(ctx, tx, input.EventID)
	if err != nil {
		if errors.Is(err, event.ErrEventBusy) {
			s.countBooking("lock_timeout")
		}
		return nil, err
	}
	if !ev.Active {
		s.countBooking("inactive_event")
		return nil, event.ErrEventInactive
	}
	if input.NumberOfSeats > ev.AvailableSeats {
		s.countBooking("insufficient_seats")
		return nil, &booking.InsufficientSeatsError{
			Available: ev.AvailableSeats,
			Requested: input.NumberOfSeats,
		}
	}

	// 金額はイベントの現在価格からスナップショットされる
	b := booking.NewBooking(input.EventID, input.UserID, input.NumberOfSeats, ev.TicketPriceCents)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if err := s.createWithReferenceRetry(ctx, tx, b); err != nil {
		s.countBooking("error")
		return nil, err
	}

	if err := s.eventRepo.AdjustAvailableSeats(ctx, tx, ev.ID, -input.NumberOfSeats); err != nil {
		// ロック保持中のため、空席検証済みのここで失敗するのは想定外
		s.countBooking("error")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.countBooking("error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.observeLockDuration(time.Since(lockStart))
	s.countBooking("confirmed")

	// ここから先はベストエフォート。予約は既に確定している
	s.invalidateCache(ctx, ev.ID)
	s.attachQRCode(ctx, b, ev)
	s.publishEvent(ctx, b, ev, s.publishConfirmed)

	return b, nil
}

// createWithReferenceRetry は予約番号の衝突時に再生成して再試行する
func (s *BookingService) createWithReferenceRetry(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	for attempt := 0; attempt < s.maxReferenceRetries; attempt++ {
		err := s.bookingRepo.Create(ctx, tx, b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, booking.ErrReferenceAlreadyExists) {
			return err
		}
		logger.Warn("予約番号が衝突したため再生成します",
			zap.String("reference", b.Reference),
			zap.Int("attempt", attempt+1),
		)
		b.RegenerateReference()
	}
	return booking.ErrReferenceRetriesExhausted
}

// CancelBooking は予約をキャンセルし座席を在庫へ戻す
// 所有者以外の予約は存在しないものとして扱う
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByIDAndUserID(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if b.IsCancelled() {
		return nil, booking.ErrAlreadyCancelled
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 在庫返却も予約作成と同じイベント行ロックで直列化する
	ev, err := s.eventRepo.GetByIDForUpdate(ctx, tx, b.EventID)
	if err != nil {
		return nil, err
	}

	if err := b.Cancel(); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateStatus(ctx, tx, b); err != nil {
		// 所有者照会からロック取得までの間に別リクエストが
		// キャンセルを確定させた場合は二重キャンセルとして扱う
		if errors.Is(err, booking.ErrInvalidTransition) {
			if cur, getErr := s.bookingRepo.GetByID(ctx, b.ID); getErr == nil && cur.IsCancelled() {
				return nil, booking.ErrAlreadyCancelled
			}
		}
		return nil, err
	}
	if err := s.eventRepo.AdjustAvailableSeats(ctx, tx, b.EventID, b.NumberOfSeats); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.countBooking("cancelled")
	s.invalidateCache(ctx, b.EventID)
	s.publishEvent(ctx, b, ev, s.publishCancelled)

	return b, nil
}

// GetBooking は所有者を限定して予約を取得する
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error) {
	return s.bookingRepo.GetByIDAndUserID(ctx, bookingID, userID)
}

// GetBookingByReference は予約番号から予約を取得する
// 会場での照合用に所有者を限定しない
func (s *BookingService) GetBookingByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	return s.bookingRepo.GetByReference(ctx, reference)
}

// ListUserBookings はユーザーの予約一覧を予約日時の降順で取得する
// page は0始まり。size が範囲外の場合はデフォルト値に補正する
func (s *BookingService) ListUserBookings(ctx context.Context, userID string, page, size int) (*booking.Page, error) {
	limit, offset := normalizePage(page, size)
	return s.bookingRepo.ListByUserID(ctx, userID, limit, offset)
}

// BackfillQRCodes はQRコード未添付の確定予約にQRコードを補完する
// 処理した件数を返す
func (s *BookingService) BackfillQRCodes(ctx context.Context, limit int) (int, error) {
	if limit < 1 {
		limit = 50
	}
	bookings, err := s.bookingRepo.ListConfirmedWithoutQRCode(ctx, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, b := range bookings {
		ev, err := s.eventRepo.GetByID(ctx, b.EventID)
		if err != nil {
			logger.Warn("QRコード補完: イベント取得に失敗",
				zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		s.attachQRCode(ctx, b, ev)
		if b.QRCodeData != nil {
			processed++
		}
	}
	return processed, nil
}

// attachQRCode はQRコードを生成して予約に添付する（ベストエフォート）
func (s *BookingService) attachQRCode(ctx context.Context, b *booking.Booking, ev *event.Event) {
	if s.qrGenerator == nil {
		return
	}

	email := ""
	if u, err := s.userRepo.GetByID(ctx, b.UserID); err == nil {
		email = u.Email
	} else {
		logger.Warn("QRコード生成: ユーザー取得に失敗",
			zap.String("booking_id", b.ID), zap.Error(err))
	}

	data, err := s.qrGenerator.Generate(qrcode.BookingFacts{
		BookingID:     b.ID,
		Reference:     b.Reference,
		EventID:       ev.ID,
		EventTitle:    ev.Title,
		UserEmail:     email,
		NumberOfSeats: b.NumberOfSeats,
	})
	if err != nil {
		s.countQRCode("failed")
		logger.Warn("QRコード生成に失敗しました",
			zap.String("booking_id", b.ID), zap.Error(err))
		return
	}

	if err := s.bookingRepo.AttachQRCode(ctx, b.ID, data); err != nil {
		s.countQRCode("failed")
		logger.Warn("QRコードの保存に失敗しました",
			zap.String("booking_id", b.ID), zap.Error(err))
		return
	}

	b.AttachQRCode(data)
	s.countQRCode("success")
}

func (s *BookingService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("空席数キャッシュの無効化に失敗しました",
			zap.String("event_id", eventID), zap.Error(err))
	}
}

func (s *BookingService) publishEvent(ctx context.Context, b *booking.Booking, ev *event.Event, publish func(context.Context, queue.BookingEvent) error) {
	if s.publisher == nil || publish == nil {
		return
	}
	msg := queue.BookingEvent{
		BookingID:        b.ID,
		Reference:        b.Reference,
		UserID:           b.UserID,
		EventID:          b.EventID,
		EventTitle:       ev.Title,
		NumberOfSeats:    b.NumberOfSeats,
		TotalAmountCents: b.TotalAmountCents,
		OccurredAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if err := publish(ctx, msg); err != nil {
		logger.Warn("予約イベントの配信に失敗しました",
			zap.String("booking_id", b.ID), zap.Error(err))
	}
}

func (s *BookingService) publishConfirmed(ctx context.Context, msg queue.BookingEvent) error {
	return s.publisher.PublishBookingConfirmed(ctx, msg)
}

func (s *BookingService) publishCancelled(ctx context.Context, msg queue.BookingEvent) error {
	return s.publisher.PublishBookingCancelled(ctx, msg)
}

func (s *BookingService) countBooking(status string) {
	if m := metrics.Get(); m != nil {
		m.BookingsTotal.WithLabelValues(status).Inc()
	}
}

func (s *BookingService) countQRCode(status string) {
	if m := metrics.Get(); m != nil {
		m.QRCodeGenerationTotal.WithLabelValues(status).Inc()
	}
}

func (s *BookingService) observeLockDuration(d time.Duration) {
	if m := metrics.Get(); m != nil {
		m.SeatLockDuration.Observe(d.Seconds())
	}
}

// normalizePage は0始まりのページ番号とサイズをlimit/offsetへ変換する
func normalizePage(page, size int) (limit, offset int) {
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if page < 0 {
		page = 0
	}
	return size, page * size
}
