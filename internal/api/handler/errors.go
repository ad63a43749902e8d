package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/booking"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/event"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/user"
)

// toHTTPError はドメインエラーをHTTPステータスへ変換する
//
//	404: リソースが見つからない
//	400: ビジネスルール違反・バリデーションエラー
//	401: 認証情報の不一致
//	409: 在庫ロック競合・メールアドレス重複
func toHTTPError(err error) error {
	if _, ok := booking.IsInsufficientSeats(err); ok {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	switch {
	case errors.Is(err, event.ErrEventNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, event.ErrEventBusy),
		errors.Is(err, user.ErrEmailAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, user.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())

	case errors.Is(err, event.ErrEventInactive),
		errors.Is(err, event.ErrInvalidCategory),
		errors.Is(err, event.ErrInvalidTicketPrice),
		errors.Is(err, event.ErrInvalidTotalSeats),
		errors.Is(err, event.ErrTotalSeatsBelowBooked),
		errors.Is(err, event.ErrTitleRequired),
		errors.Is(err, event.ErrVenueRequired),
		errors.Is(err, event.ErrCityRequired),
		errors.Is(err, booking.ErrAlreadyCancelled),
		errors.Is(err, booking.ErrInvalidSeatCount),
		errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, user.ErrEmailRequired),
		errors.Is(err, user.ErrFullNameRequired),
		errors.Is(err, user.ErrPasswordRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
