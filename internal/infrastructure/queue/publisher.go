package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/pkg/logger"
)

const (
	queueBookingConfirmed = "booking.confirmed"
	queueBookingCancelled = "booking.cancelled"
)

// BookingEvent は予約の確定・キャンセル時に下流へ配信されるメッセージ
type BookingEvent struct {
	BookingID        string `json:"booking_id"`
	Reference        string `json:"reference"`
	UserID           string `json:"user_id"`
	EventID          string `json:"event_id"`
	EventTitle       string `json:"event_title"`
	NumberOfSeats    int    `json:"number_of_seats"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	OccurredAt       string `json:"occurred_at"`
}

// Publisher はRabbitMQへ予約イベントを配信する
// 配信はベストエフォートであり、失敗しても予約処理には影響しない
type Publisher struct {
	conn *amqp.Connection
	url  string
}

// NewPublisher はRabbitMQに接続してPublisherを作成する
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗しました: %w", err)
	}
	return &Publisher{conn: conn, url: url}, nil
}

// Close は接続を閉じる
func (p *Publisher) Close() error {
	return p.conn.Close()
}

// PublishBookingConfirmed は予約確定イベントを配信する
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, ev BookingEvent) error {
	return p.publish(ctx, queueBookingConfirmed, ev)
}

// PublishBookingCancelled は予約キャンセルイベントを配信する
func (p *Publisher) PublishBookingCancelled(ctx context.Context, ev BookingEvent) error {
	return p.publish(ctx, queueBookingCancelled, ev)
}

// publish はキューを宣言してメッセージを永続化モードで配信する
func (p *Publisher) publish(ctx context.Context, queueName string, ev BookingEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		logger.Warn("チャネルのオープンに失敗", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// キューの存在を保証（冪等）。durable指定でブローカー再起動後もメッセージを保持
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		logger.Warn("キュー宣言に失敗", zap.String("queue", queueName), zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		logger.Warn("メッセージ配信に失敗", zap.String("queue", queueName), zap.Error(err))
		return err
	}
	return nil
}
