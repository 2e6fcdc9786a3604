package storage

import (
	"context"
	"fmt"
	"time"

	"shareit/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingStore struct {
	db *gorm.DB
}

func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{db: db}
}

func (s *BookingStore) Create(ctx context.Context, booking *models.Booking) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(booking).Error; err != nil {
		return fmt.Errorf("create booking: %w", translate(err))
	}
	return nil
}

func (s *BookingStore) FindByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Preload("Item").
		Preload("Booker").
		First(&booking, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *BookingStore) UpdateStatusIfWaiting(ctx context.Context, id int64, status models.BookingStatus) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, models.StatusWaiting).
		Update("status", status)
	if res.Error != nil {
		return false, fmt.Errorf("update booking %d status: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *BookingStore) FindByBooker(ctx context.Context, bookerID int64, state models.BookingState, now time.Time, page Page) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).Where("booker_id = ?", bookerID)
	return s.list(q, state, now, page)
}

func (s *BookingStore) FindByOwner(ctx context.Context, ownerID int64, state models.BookingState, now time.Time, page Page) ([]models.Booking, error) {
	owned := s.db.Model(&models.Item{}).Select("id").Where("owner_id = ?", ownerID)
	q := s.db.WithContext(ctx).Where("item_id IN (?)", owned)
	return s.list(q, state, now, page)
}

func (s *BookingStore) list(q *gorm.DB, state models.BookingState, now time.Time, page Page) ([]models.Booking, error) {
	q, err := applyState(q, state, now)
	if err != nil {
		return nil, err
	}

	var bookings []models.Booking
	q = q.Preload("Item").Preload("Booker").Order("start_date DESC").Order("id DESC")
	if err := page.apply(q).Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func applyState(q *gorm.DB, state models.BookingState, now time.Time) (*gorm.DB, error) {
	switch state {
	case models.StateAll:
		return q, nil
	case models.StateCurrent:
		return q.Where("start_date < ? AND end_date > ?", now, now), nil
	case models.StatePast:
		return q.Where("end_date < ?", now), nil
	case models.StateFuture:
		return q.Where("start_date > ?", now), nil
	case models.StateWaiting:
		return q.Where("status = ?", models.StatusWaiting), nil
	case models.StateRejected:
		return q.Where("status = ?", models.StatusRejected), nil
	default:
		return nil, fmt.Errorf("unsupported booking state %q", state)
	}
}

func (s *BookingStore) FindLastApproved(ctx context.Context, itemIDs []int64, now time.Time) ([]models.Booking, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("item_id IN ? AND start_date <= ? AND status = ?", itemIDs, now, models.StatusApproved).
		Order("start_date DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("find last bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingStore) FindNextApproved(ctx context.Context, itemIDs []int64, now time.Time) ([]models.Booking, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Where("item_id IN ? AND start_date > ? AND status = ?", itemIDs, now, models.StatusApproved).
		Order("start_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("find next bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingStore) ExistsCompleted(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("booker_id = ? AND item_id = ? AND status = ? AND end_date < ?", bookerID, itemID, models.StatusApproved, now).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check completed bookings: %w", err)
	}
	return count > 0, nil
}
