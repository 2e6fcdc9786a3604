// Package service implements the rental workflows on top of the storage
// repositories.
package service

import (
	"time"

	"shareit/pkg/apperrors"
	"shareit/pkg/cache"
	"shareit/pkg/storage"

	"github.com/rs/zerolog"
)

// Clock returns the current time. Services compare against it in UTC.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func pageOf(from, size int) (storage.Page, error) {
	if from < 0 {
		return storage.Page{}, apperrors.Validationf("from must not be negative")
	}
	if size <= 0 {
		return storage.Page{}, apperrors.Validationf("size must be positive")
	}
	return storage.NewPage(from, size), nil
}

// Services wires every workflow to one store.
type Services struct {
	Users    *UserService
	Items    *ItemService
	Bookings *BookingService
	Requests *ItemRequestService
}

func New(store *storage.Store, userCache cache.UserCache, logger *zerolog.Logger) *Services {
	users := NewUserService(store.Users, userCache, logger)
	return &Services{
		Users:    users,
		Items:    NewItemService(store.Items, store.Bookings, store.Comments, store.Requests, users, logger),
		Bookings: NewBookingService(store.Bookings, store.Items, users, logger),
		Requests: NewItemRequestService(store.Requests, store.Items, users, logger),
	}
}

// SetClock replaces the time source of every time-dependent workflow.
func (s *Services) SetClock(now Clock) {
	s.Items.now = now
	s.Bookings.now = now
	s.Requests.now = now
}
