package models

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// BookingState is the filter applied when listing bookings.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

var bookingStates = map[string]BookingState{
	"ALL":      StateAll,
	"CURRENT":  StateCurrent,
	"PAST":     StatePast,
	"FUTURE":   StateFuture,
	"WAITING":  StateWaiting,
	"REJECTED": StateRejected,
}

// ParseBookingState is case-insensitive. An empty string means ALL.
func ParseBookingState(s string) (BookingState, bool) {
	if strings.TrimSpace(s) == "" {
		return StateAll, true
	}
	state, ok := bookingStates[strings.ToUpper(strings.TrimSpace(s))]
	return state, ok
}

type User struct {
	ID    int64  `gorm:"primaryKey"`
	Name  string `gorm:"size:255;not null"`
	Email string `gorm:"size:512;not null;uniqueIndex"`
}

type ItemRequest struct {
	ID          int64  `gorm:"primaryKey"`
	Description string `gorm:"size:1024;not null"`
	RequesterID int64  `gorm:"not null;index"`
	Created     time.Time

	Requester User `gorm:"foreignKey:RequesterID"`
}

type Item struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"size:1024;not null"`
	Available   bool   `gorm:"not null"`
	OwnerID     int64  `gorm:"not null;index"`
	RequestID   *int64 `gorm:"index"`

	Owner   User         `gorm:"foreignKey:OwnerID"`
	Request *ItemRequest `gorm:"foreignKey:RequestID"`
}

type Booking struct {
	ID       int64         `gorm:"primaryKey"`
	Start    time.Time     `gorm:"column:start_date;not null;index"`
	End      time.Time     `gorm:"column:end_date;not null"`
	ItemID   int64         `gorm:"not null;index"`
	BookerID int64         `gorm:"not null;index"`
	Status   BookingStatus `gorm:"size:20;not null"`

	Item   Item `gorm:"foreignKey:ItemID"`
	Booker User `gorm:"foreignKey:BookerID"`
}

type Comment struct {
	ID       int64  `gorm:"primaryKey"`
	Text     string `gorm:"size:2048;not null"`
	ItemID   int64  `gorm:"not null;index"`
	AuthorID int64  `gorm:"not null"`
	Created  time.Time

	Item   Item `gorm:"foreignKey:ItemID"`
	Author User `gorm:"foreignKey:AuthorID"`
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{&User{}, &ItemRequest{}, &Item{}, &Booking{}, &Comment{}}
}
