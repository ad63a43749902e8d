package handler

import (
	"context"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/application"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/booking"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/event"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/user"
)

// AuthServiceInterface は認証サービスのインターフェース
type AuthServiceInterface interface {
	Register(ctx context.Context, input application.RegisterInput) (*user.User, error)
	Login(ctx context.Context, email, password string) (string, *user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
}

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error)
	DeactivateEvent(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, page, size int) (*event.Page, error)
	ListUpcomingEvents(ctx context.Context, page, size int) (*event.Page, error)
	ListEventsByCategory(ctx context.Context, category event.Category, page, size int) (*event.Page, error)
	ListEventsByCity(ctx context.Context, city string, page, size int) (*event.Page, error)
	SearchEvents(ctx context.Context, keyword string, page, size int) (*event.Page, error)
	ListAvailableEvents(ctx context.Context, page, size int) (*event.Page, error)
	GetAvailableSeats(ctx context.Context, eventID string) (int, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error)
	CancelBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*booking.Booking, error)
	ListUserBookings(ctx context.Context, userID string, page, size int) (*booking.Page, error)
}
