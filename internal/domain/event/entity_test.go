package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestEvent() *Event {
	return NewEvent("夏フェス2026", "野外音楽フェス", CategoryConcert,
		"東京ドーム", "東京", time.Now().Add(30*24*time.Hour), 550000, 500, "")
}

func TestNewEvent(t *testing.T) {
	e := createTestEvent()

	assert.Equal(t, "夏フェス2026", e.Title)
	assert.Equal(t, CategoryConcert, e.Category)
	assert.Equal(t, 500, e.TotalSeats)
	assert.Equal(t, 500, e.AvailableSeats, "空席数は総座席数で初期化される")
	assert.True(t, e.Active)
	require.NoError(t, e.Validate())
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Event)
		errExpected error
	}{
		{
			name:        "タイトル未指定",
			modify:      func(e *Event) { e.Title = "" },
			errExpected: ErrTitleRequired,
		},
		{
			name:        "不正なカテゴリ",
			modify:      func(e *Event) { e.Category = "festival" },
			errExpected: ErrInvalidCategory,
		},
		{
			name:        "会場未指定",
			modify:      func(e *Event) { e.Venue = "" },
			errExpected: ErrVenueRequired,
		},
		{
			name:        "都市未指定",
			modify:      func(e *Event) { e.City = "" },
			errExpected: ErrCityRequired,
		},
		{
			name:        "負の価格",
			modify:      func(e *Event) { e.TicketPriceCents = -1 },
			errExpected: ErrInvalidTicketPrice,
		},
		{
			name:        "総座席数がゼロ",
			modify:      func(e *Event) { e.TotalSeats = 0 },
			errExpected: ErrInvalidTotalSeats,
		},
		{
			name:        "空席数が負",
			modify:      func(e *Event) { e.AvailableSeats = -1 },
			errExpected: ErrSeatInvariantViolation,
		},
		{
			name:        "空席数が総座席数を超過",
			modify:      func(e *Event) { e.AvailableSeats = e.TotalSeats + 1 },
			errExpected: ErrSeatInvariantViolation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := createTestEvent()
			tt.modify(e)
			assert.ErrorIs(t, e.Validate(), tt.errExpected)
		})
	}
}

func TestEvent_BookedSeats(t *testing.T) {
	e := createTestEvent()
	e.AvailableSeats = 480

	assert.Equal(t, 20, e.BookedSeats())
}

func TestEvent_Resize(t *testing.T) {
	t.Run("拡大時は予約済み座席数を維持して空席数を再計算", func(t *testing.T) {
		e := createTestEvent()
		e.AvailableSeats = 480 // 20席予約済み

		require.NoError(t, e.Resize(600))
		assert.Equal(t, 600, e.TotalSeats)
		assert.Equal(t, 580, e.AvailableSeats)
		assert.Equal(t, 20, e.BookedSeats())
	})

	t.Run("縮小時も予約済み座席数を維持", func(t *testing.T) {
		e := createTestEvent()
		e.AvailableSeats = 480

		require.NoError(t, e.Resize(100))
		assert.Equal(t, 100, e.TotalSeats)
		assert.Equal(t, 80, e.AvailableSeats)
	})

	t.Run("予約済み座席数を下回る縮小は拒否", func(t *testing.T) {
		e := createTestEvent()
		e.AvailableSeats = 480 // 20席予約済み

		err := e.Resize(19)
		assert.ErrorIs(t, err, ErrTotalSeatsBelowBooked)
		assert.Equal(t, 500, e.TotalSeats, "失敗時は変更されない")
	})

	t.Run("ゼロへの縮小は拒否", func(t *testing.T) {
		e := createTestEvent()
		assert.ErrorIs(t, e.Resize(0), ErrInvalidTotalSeats)
	})
}

func TestCategory_IsValid(t *testing.T) {
	valid := []Category{CategoryConcert, CategoryConference, CategorySports, CategoryTheater, CategoryWorkshop, CategoryOther}
	for _, c := range valid {
		assert.True(t, c.IsValid(), string(c))
	}
	assert.False(t, Category("festival").IsValid())
	assert.False(t, Category("").IsValid())
}
