package application

import (
	"context"
	"time"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/infrastructure/queue"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/qrcode"
)

// QRGenerator はQRコード生成器のインターフェース
type QRGenerator interface {
	Generate(f qrcode.BookingFacts) (string, error)
}

// AvailabilityCache は空席数キャッシュのインターフェース
type AvailabilityCache interface {
	GetAvailableSeats(ctx context.Context, eventID string) (int, error)
	SetAvailableSeats(ctx context.Context, eventID string, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, eventID string) error
}

// BookingEventPublisher は予約イベント配信のインターフェース
type BookingEventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingEvent) error
	PublishBookingCancelled(ctx context.Context, ev queue.BookingEvent) error
}
