package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockQRCodeBackfiller はQRCodeBackfillerのモック
type MockQRCodeBackfiller struct {
	mock.Mock
}

func (m *MockQRCodeBackfiller) BackfillQRCodes(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func TestNewQRBackfillWorker(t *testing.T) {
	mockService := new(MockQRCodeBackfiller)
	interval := 5 * time.Minute

	w := NewQRBackfillWorker(mockService, interval)

	assert.NotNil(t, w)
	assert.Equal(t, interval, w.interval)
	assert.NotNil(t, w.stopCh)
	assert.NotNil(t, w.doneCh)
}

func TestQRBackfillWorker_StartAndStop(t *testing.T) {
	mockService := new(MockQRCodeBackfiller)
	mockService.On("BackfillQRCodes", mock.Anything, backfillBatchSize).Return(2, nil)

	w := NewQRBackfillWorker(mockService, 10*time.Millisecond)

	ctx := context.Background()
	go w.Start(ctx)

	// 少なくとも1回は実行されるまで待つ
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	mockService.AssertCalled(t, "BackfillQRCodes", mock.Anything, backfillBatchSize)
}

func TestQRBackfillWorker_StopsOnContextCancel(t *testing.T) {
	mockService := new(MockQRCodeBackfiller)
	mockService.On("BackfillQRCodes", mock.Anything, backfillBatchSize).Return(0, nil)

	w := NewQRBackfillWorker(mockService, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	cancel()

	select {
	case <-w.doneCh:
		// 正常に停止した
	case <-time.After(time.Second):
		t.Fatal("コンテキストキャンセル後もワーカーが停止しない")
	}
}
