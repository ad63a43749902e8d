package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/config"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/booking"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/event"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/transaction"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/infrastructure/postgres"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/qrcode"
)

type scenarioEnv struct {
	bookingService *BookingService
	eventService   *EventService
	authService    *AuthService
	bookingRepo    *postgres.BookingRepository
	txManager      transaction.Manager
}

func setupTestEnv(t *testing.T) *scenarioEnv {
	t.Helper()
	cfg := config.Load()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		t.Skipf("DB接続エラー: %v", err)
	}

	eventRepo := postgres.NewEventRepository(db, cfg.Booking.LockTimeout)
	bookingRepo := postgres.NewBookingRepository(db)
	userRepo := postgres.NewUserRepository(db)
	txManager := postgres.NewTxManager(db)

	t.Cleanup(func() {
		db.Exec("DELETE FROM bookings")
		db.Exec("DELETE FROM events")
		db.Exec("DELETE FROM users")
		db.Close()
	})

	return &scenarioEnv{
		bookingService: NewBookingService(txManager, bookingRepo, eventRepo, userRepo,
			qrcode.NewGenerator(), nil, nil, cfg.Booking.MaxReferenceRetries),
		eventService: NewEventService(txManager, eventRepo, nil),
		authService:  NewAuthService(userRepo, cfg.JWT),
		bookingRepo:  bookingRepo,
		txManager:    txManager,
	}
}

func registerTestUser(t *testing.T, authService *AuthService) string {
	t.Helper()
	u, err := authService.Register(context.Background(), RegisterInput{
		Email:    fmt.Sprintf("user-%s@example.com", uuid.New().String()[:8]),
		FullName: "テストユーザー",
		Password: "password123",
	})
	require.NoError(t, err)
	return u.ID
}

// TestScenario_FullBookingFlow は予約の完全なフローをテストします
// イベント作成 → 予約 → 空席減少確認 → キャンセル → 在庫返却確認
func TestScenario_FullBookingFlow(t *testing.T) {
	env := setupTestEnv(t)
	bookingService, eventService := env.bookingService, env.eventService

	ctx := context.Background()
	userID := registerTestUser(t, env.authService)

	// 1. イベント作成
	ev, err := eventService.CreateEvent(ctx, CreateEventInput{
		Title:            "東京ドームコンサート 2026",
		Category:         event.CategoryConcert,
		Venue:            "東京ドーム",
		City:             "東京",
		EventDate:        time.Now().Add(30 * 24 * time.Hour),
		TicketPriceCents: 1500000,
		TotalSeats:       100,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)

	// 2. 予約作成（2席）
	b, err := bookingService.CreateBooking(ctx, CreateBookingInput{
		EventID: ev.ID, UserID: userID, NumberOfSeats: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.Equal(t, int64(3000000), b.TotalAmountCents) // 1500000 * 2
	assert.True(t, strings.HasPrefix(b.Reference, "BKG-"))
	assert.NotNil(t, b.QRCodeData, "QRコードは予約確定後に添付される")

	// 3. 空席数の減少を確認
	updated, err := eventService.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 98, updated.AvailableSeats)

	// 4. 予約番号から照合できる
	found, err := bookingService.GetBookingByReference(ctx, b.Reference)
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)

	// 5. キャンセルで在庫が戻る
	cancelled, err := bookingService.CancelBooking(ctx, b.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, cancelled.Status)

	updated, err = eventService.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.AvailableSeats)

	// 6. 二重キャンセルは拒否
	_, err = bookingService.CancelBooking(ctx, b.ID, userID)
	assert.ErrorIs(t, err, booking.ErrAlreadyCancelled)
}

// TestScenario_ConcurrentBookings_NoOversell は並行予約で在庫が超過販売されないことを検証します
func TestScenario_ConcurrentBookings_NoOversell(t *testing.T) {
	env := setupTestEnv(t)
	bookingService, eventService, authService := env.bookingService, env.eventService, env.authService

	ctx := context.Background()

	const totalSeats = 10
	const attempts = 20

	ev, err := eventService.CreateEvent(ctx, CreateEventInput{
		Title:            "限定ライブ",
		Category:         event.CategoryConcert,
		Venue:            "小ホール",
		City:             "大阪",
		EventDate:        time.Now().Add(7 * 24 * time.Hour),
		TicketPriceCents: 500000,
		TotalSeats:       totalSeats,
	})
	require.NoError(t, err)

	userIDs := make([]string, attempts)
	for i := range userIDs {
		userIDs[i] = registerTestUser(t, authService)
	}

	var successCount int64
	var insufficientCount int64
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := bookingService.CreateBooking(ctx, CreateBookingInput{
				EventID: ev.ID, UserID: userID, NumberOfSeats: 1,
			})
			if err == nil {
				atomic.AddInt64(&successCount, 1)
				return
			}
			if _, ok := booking.IsInsufficientSeats(err); ok {
				atomic.AddInt64(&insufficientCount, 1)
			}
		}(userIDs[i])
	}
	wg.Wait()

	// 成功数は座席数を超えない
	assert.LessOrEqual(t, successCount, int64(totalSeats))

	// 最終的な空席数は成功数と整合する
	updated, err := eventService.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, totalSeats-int(successCount), updated.AvailableSeats)
	assert.GreaterOrEqual(t, updated.AvailableSeats, 0, "空席数は負にならない")

	// 台帳側の確定座席合計も在庫の減少分と一致する
	sum, err := env.bookingRepo.SumConfirmedSeatsByEventID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, int(successCount), sum)
	assert.Equal(t, totalSeats-updated.AvailableSeats, sum)
}

// TestScenario_ReferenceCollisionRetriesInSameTransaction は予約番号の一意制約違反後も
// トランザクションが失敗状態にならず、番号を再生成して同一トランザクション内で
// 再挿入できることを検証します
func TestScenario_ReferenceCollisionRetriesInSameTransaction(t *testing.T) {
	env := setupTestEnv(t)

	ctx := context.Background()
	userID := registerTestUser(t, env.authService)

	ev, err := env.eventService.CreateEvent(ctx, CreateEventInput{
		Title:            "番号衝突テスト公演",
		Category:         event.CategoryConcert,
		Venue:            "テストホール",
		City:             "福岡",
		EventDate:        time.Now().Add(10 * 24 * time.Hour),
		TicketPriceCents: 200000,
		TotalSeats:       20,
	})
	require.NoError(t, err)

	// 既存の予約を確定させておく
	existing := booking.NewBooking(ev.ID, userID, 1, ev.TicketPriceCents)
	tx0, err := env.txManager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, env.bookingRepo.Create(ctx, tx0, existing))
	require.NoError(t, tx0.Commit())

	tx, err := env.txManager.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	// 同じ予約番号で一意制約違反を起こす
	dup := booking.NewBooking(ev.ID, userID, 1, ev.TicketPriceCents)
	dup.Reference = existing.Reference
	err = env.bookingRepo.Create(ctx, tx, dup)
	require.ErrorIs(t, err, booking.ErrReferenceAlreadyExists)

	// 衝突後も同一トランザクションで再生成した番号なら挿入できる
	dup.RegenerateReference()
	require.NoError(t, env.bookingRepo.Create(ctx, tx, dup))
	require.NoError(t, tx.Commit())

	found, err := env.bookingRepo.GetByReference(ctx, dup.Reference)
	require.NoError(t, err)
	assert.Equal(t, dup.ID, found.ID)
}

// TestScenario_BookingOnDeactivatedEvent は論理削除済みイベントへの予約拒否を検証します
func TestScenario_BookingOnDeactivatedEvent(t *testing.T) {
	env := setupTestEnv(t)
	bookingService, eventService := env.bookingService, env.eventService

	ctx := context.Background()
	userID := registerTestUser(t, env.authService)

	ev, err := eventService.CreateEvent(ctx, CreateEventInput{
		Title:            "中止予定のイベント",
		Category:         event.CategoryTheater,
		Venue:            "市民会館",
		City:             "名古屋",
		EventDate:        time.Now().Add(14 * 24 * time.Hour),
		TicketPriceCents: 300000,
		TotalSeats:       50,
	})
	require.NoError(t, err)

	require.NoError(t, eventService.DeactivateEvent(ctx, ev.ID))

	_, err = bookingService.CreateBooking(ctx, CreateBookingInput{
		EventID: ev.ID, UserID: userID, NumberOfSeats: 1,
	})
	assert.ErrorIs(t, err, event.ErrEventInactive)
}
