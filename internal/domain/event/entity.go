package event

import "time"

// Category はイベントのカテゴリを表す
type Category string

const (
	CategoryConcert    Category = "concert"
	CategoryConference Category = "conference"
	CategorySports     Category = "sports"
	CategoryTheater    Category = "theater"
	CategoryWorkshop   Category = "workshop"
	CategoryOther      Category = "other"
)

// IsValid はカテゴリが定義済みの値かを返す
func (c Category) IsValid() bool {
	switch c {
	case CategoryConcert, CategoryConference, CategorySports, CategoryTheater, CategoryWorkshop, CategoryOther:
		return true
	}
	return false
}

// Event はイベントエンティティを表す
// TicketPriceCents は浮動小数点の丸め誤差を避けるため最小通貨単位で保持する
type Event struct {
	ID               string
	Title            string
	Description      string
	Category         Category
	Venue            string
	City             string
	EventDate        time.Time
	TicketPriceCents int64
	TotalSeats       int
	AvailableSeats   int
	ImageURL         string
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewEvent は新しいイベントを作成する
// 空席数は総座席数で初期化される
func NewEvent(title, description string, category Category, venue, city string, eventDate time.Time, ticketPriceCents int64, totalSeats int, imageURL string) *Event {
	now := time.Now()
	return &Event{
		Title:            title,
		Description:      description,
		Category:         category,
		Venue:            venue,
		City:             city,
		EventDate:        eventDate,
		TicketPriceCents: ticketPriceCents,
		TotalSeats:       totalSeats,
		AvailableSeats:   totalSeats,
		ImageURL:         imageURL,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// BookedSeats は予約済み座席数を返す
func (e *Event) BookedSeats() int {
	return e.TotalSeats - e.AvailableSeats
}

// Resize は総座席数を変更する
// 予約済み座席数を維持したまま空席数を再計算する
func (e *Event) Resize(newTotalSeats int) error {
	if newTotalSeats < 1 {
		return ErrInvalidTotalSeats
	}
	booked := e.BookedSeats()
	if newTotalSeats < booked {
		return ErrTotalSeatsBelowBooked
	}
	e.TotalSeats = newTotalSeats
	e.AvailableSeats = newTotalSeats - booked
	e.UpdatedAt = time.Now()
	return nil
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrTitleRequired
	}
	if !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	if e.Venue == "" {
		return ErrVenueRequired
	}
	if e.City == "" {
		return ErrCityRequired
	}
	if e.TicketPriceCents < 0 {
		return ErrInvalidTicketPrice
	}
	if e.TotalSeats < 1 {
		return ErrInvalidTotalSeats
	}
	if e.AvailableSeats < 0 || e.AvailableSeats > e.TotalSeats {
		return ErrSeatInvariantViolation
	}
	return nil
}
