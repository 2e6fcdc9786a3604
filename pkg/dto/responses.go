package dto

import "shareit/pkg/models"

type ErrorResponse struct {
	Error string `json:"error"`
}

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   *int64 `json:"requestId"`
}

// BookingShort is how a booking is shown inside an item.
type BookingShort struct {
	ID       int64 `json:"id"`
	BookerID int64 `json:"bookerId"`
}

type Comment struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	AuthorName string   `json:"authorName"`
	Created    DateTime `json:"created"`
}

type ItemEnhanced struct {
	Item
	LastBooking *BookingShort `json:"lastBooking,omitempty"`
	NextBooking *BookingShort `json:"nextBooking,omitempty"`
	Comments    []Comment     `json:"comments"`
}

type Booking struct {
	ID     int64                `json:"id"`
	Start  DateTime             `json:"start"`
	End    DateTime             `json:"end"`
	Status models.BookingStatus `json:"status"`
	Item   Item                 `json:"item"`
	Booker User                 `json:"booker"`
}

type ItemRequest struct {
	ID          int64    `json:"id"`
	Description string   `json:"description"`
	Requester   User     `json:"requester"`
	Created     DateTime `json:"created"`
	Items       []Item   `json:"items"`
}

func FromUser(u models.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email}
}

func FromUsers(users []models.User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, FromUser(u))
	}
	return out
}

func FromItem(i models.Item) Item {
	return Item{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		RequestID:   i.RequestID,
	}
}

func FromItems(items []models.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, i := range items {
		out = append(out, FromItem(i))
	}
	return out
}

func FromBookingShort(b models.Booking) *BookingShort {
	return &BookingShort{ID: b.ID, BookerID: b.BookerID}
}

func FromComment(c models.Comment) Comment {
	return Comment{
		ID:         c.ID,
		Text:       c.Text,
		AuthorName: c.Author.Name,
		Created:    NewDateTime(c.Created),
	}
}

func FromBooking(b models.Booking) Booking {
	return Booking{
		ID:     b.ID,
		Start:  NewDateTime(b.Start),
		End:    NewDateTime(b.End),
		Status: b.Status,
		Item:   FromItem(b.Item),
		Booker: FromUser(b.Booker),
	}
}

func FromBookings(bookings []models.Booking) []Booking {
	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, FromBooking(b))
	}
	return out
}

func FromItemRequest(r models.ItemRequest, items []models.Item) ItemRequest {
	return ItemRequest{
		ID:          r.ID,
		Description: r.Description,
		Requester:   FromUser(r.Requester),
		Created:     NewDateTime(r.Created),
		Items:       FromItems(items),
	}
}
