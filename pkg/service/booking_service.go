package service

import (
	"context"
	"errors"
	"fmt"

	"shareit/pkg/apperrors"
	"shareit/pkg/dto"
	"shareit/pkg/metrics"
	"shareit/pkg/models"
	"shareit/pkg/storage"

	"github.com/rs/zerolog"
)

// Scope selects whose bookings a listing returns.
type Scope int

const (
	AsBooker Scope = iota
	AsOwner
)

type BookingService struct {
	bookings storage.BookingRepository
	items    storage.ItemRepository
	users    *UserService
	logger   *zerolog.Logger
	now      Clock
}

func NewBookingService(bookings storage.BookingRepository, items storage.ItemRepository, users *UserService, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		items:    items,
		users:    users,
		logger:   logger,
		now:      systemClock,
	}
}

// Create registers a WAITING booking of req.ItemID by bookerID.
func (s *BookingService) Create(ctx context.Context, bookerID int64, req dto.BookingCreate) (dto.Booking, error) {
	if req.ItemID == nil || req.Start == nil || req.End == nil {
		return dto.Booking{}, apperrors.Validationf("itemId, start and end must be set")
	}
	s.logger.Info().Int64("user_id", bookerID).Int64("item_id", *req.ItemID).Msg("creating booking")

	booker, err := s.users.get(ctx, bookerID)
	if err != nil {
		return dto.Booking{}, err
	}
	item, err := s.findItem(ctx, *req.ItemID)
	if err != nil {
		return dto.Booking{}, err
	}
	// Reported as not found rather than forbidden; clients rely on the 404.
	if item.OwnerID == bookerID {
		return dto.Booking{}, apperrors.NotFoundf("owner cannot book own item %d", item.ID)
	}
	if !req.Start.Before(req.End.Time) {
		return dto.Booking{}, apperrors.Validationf("booking start must be before end")
	}
	if !item.Available {
		return dto.Booking{}, apperrors.Validationf("item with id %d is not available", item.ID)
	}

	booking := models.Booking{
		Start:    req.Start.UTC(),
		End:      req.End.UTC(),
		ItemID:   item.ID,
		BookerID: booker.ID,
		Status:   models.StatusWaiting,
	}
	if err := s.bookings.Create(ctx, &booking); err != nil {
		return dto.Booking{}, err
	}
	booking.Item = *item
	booking.Booker = *booker

	s.logger.Info().Int64("booking_id", booking.ID).Msg("booking created")
	return dto.FromBooking(booking), nil
}

// Decide moves a WAITING booking to APPROVED or REJECTED on behalf of the
// item owner. The transition is a conditional update, so concurrent
// decisions on the same booking cannot both succeed.
func (s *BookingService) Decide(ctx context.Context, bookingID, userID int64, approve bool) (dto.Booking, error) {
	s.logger.Info().Int64("booking_id", bookingID).Int64("user_id", userID).Bool("approved", approve).Msg("deciding booking")

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return dto.Booking{}, err
	}
	if booking.Item.OwnerID != userID {
		return dto.Booking{}, apperrors.NotFoundf("only the owner of item %d can approve or reject booking %d", booking.ItemID, bookingID)
	}
	if booking.Status != models.StatusWaiting {
		return dto.Booking{}, apperrors.Validationf("status already decided")
	}

	status := models.StatusRejected
	if approve {
		status = models.StatusApproved
	}
	updated, err := s.bookings.UpdateStatusIfWaiting(ctx, bookingID, status)
	if err != nil {
		return dto.Booking{}, err
	}
	if !updated {
		return dto.Booking{}, apperrors.Validationf("status already decided")
	}
	booking.Status = status
	metrics.IncBookingDecision(string(status))

	return dto.FromBooking(*booking), nil
}

// FindByID is visible to the booker and the item owner only.
func (s *BookingService) FindByID(ctx context.Context, bookingID, userID int64) (dto.Booking, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return dto.Booking{}, err
	}
	if booking.BookerID != userID && booking.Item.OwnerID != userID {
		return dto.Booking{}, apperrors.NotFoundf("booking with id %d is not available to user %d", bookingID, userID)
	}
	return dto.FromBooking(*booking), nil
}

func (s *BookingService) List(ctx context.Context, userID int64, state string, scope Scope, from, size int) ([]dto.Booking, error) {
	s.logger.Debug().Int64("user_id", userID).Str("state", state).Int("scope", int(scope)).Msg("listing bookings")

	if _, err := s.users.get(ctx, userID); err != nil {
		return nil, err
	}
	filter, ok := models.ParseBookingState(state)
	if !ok {
		return nil, apperrors.Validationf("Unknown state: %s", state)
	}
	page, err := pageOf(from, size)
	if err != nil {
		return nil, err
	}

	var bookings []models.Booking
	switch scope {
	case AsOwner:
		bookings, err = s.bookings.FindByOwner(ctx, userID, filter, s.now(), page)
	default:
		bookings, err = s.bookings.FindByBooker(ctx, userID, filter, s.now(), page)
	}
	if err != nil {
		return nil, err
	}
	return dto.FromBookings(bookings), nil
}

func (s *BookingService) findBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NotFoundf("booking with id %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find booking %d: %w", id, err)
	}
	return booking, nil
}

func (s *BookingService) findItem(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, itemNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find item %d: %w", id, err)
	}
	return item, nil
}

func itemNotFound(id int64) error {
	return apperrors.NotFoundf("item with id %d not found", id)
}
