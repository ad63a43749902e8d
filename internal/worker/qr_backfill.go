package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/pkg/logger"
)

// QRCodeBackfiller はQRコード未添付の予約を補完するインターフェース
type QRCodeBackfiller interface {
	BackfillQRCodes(ctx context.Context, limit int) (int, error)
}

// 1回の実行で処理する予約数の上限
const backfillBatchSize = 50

// QRBackfillWorker はQRコード生成に失敗した確定予約へ
// 定期的にQRコードを補完するワーカー
type QRBackfillWorker struct {
	bookingService QRCodeBackfiller
	interval       time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewQRBackfillWorker は新しいワーカーを作成
func NewQRBackfillWorker(bs QRCodeBackfiller, interval time.Duration) *QRBackfillWorker {
	return &QRBackfillWorker{
		bookingService: bs,
		interval:       interval,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はワーカーを開始
func (w *QRBackfillWorker) Start(ctx context.Context) {
	logger.Info("QRコード補完ワーカー開始", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("QRコード補完ワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("QRコード補完ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.backfill(ctx)
		}
	}
}

// Stop はワーカーを停止
func (w *QRBackfillWorker) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// backfill はQRコード未添付の確定予約を処理する
func (w *QRBackfillWorker) backfill(ctx context.Context) {
	log := logger.Get()
	log.Debug("QRコード補完の開始")

	count, err := w.bookingService.BackfillQRCodes(ctx, backfillBatchSize)
	if err != nil {
		log.Error("QRコード補完に失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("QRコードを補完", zap.Int("count", count))
	} else {
		log.Debug("補完対象の予約なし")
	}
}
