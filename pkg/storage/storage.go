// Package storage holds the repository interfaces used by the services and
// their gorm implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"shareit/pkg/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenced is returned when a delete would orphan dependent rows.
	ErrReferenced = errors.New("record is still referenced")
)

// Page is an offset/limit window. A zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// NewPage turns the API's from/size pair into a page-aligned window:
// from selects the page that contains that element.
func NewPage(from, size int) Page {
	if size <= 0 {
		return Page{}
	}
	if from < 0 {
		from = 0
	}
	return Page{Offset: (from / size) * size, Limit: size}
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Limit <= 0 {
		return db
	}
	return db.Offset(p.Offset).Limit(p.Limit)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Item, error)
	FindByOwner(ctx context.Context, ownerID int64, page Page) ([]models.Item, error)
	Search(ctx context.Context, text string, page Page) ([]models.Item, error)
	FindByRequestIDs(ctx context.Context, requestIDs []int64) ([]models.Item, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id int64) (*models.Booking, error)
	// UpdateStatusIfWaiting reports false when the booking had already left WAITING.
	UpdateStatusIfWaiting(ctx context.Context, id int64, status models.BookingStatus) (bool, error)
	FindByBooker(ctx context.Context, bookerID int64, state models.BookingState, now time.Time, page Page) ([]models.Booking, error)
	FindByOwner(ctx context.Context, ownerID int64, state models.BookingState, now time.Time, page Page) ([]models.Booking, error)
	// FindLastApproved returns approved bookings started by now, newest start first.
	FindLastApproved(ctx context.Context, itemIDs []int64, now time.Time) ([]models.Booking, error)
	// FindNextApproved returns approved bookings starting after now, earliest start first.
	FindNextApproved(ctx context.Context, itemIDs []int64, now time.Time) ([]models.Booking, error)
	ExistsCompleted(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)
}

type ItemRequestRepository interface {
	Create(ctx context.Context, request *models.ItemRequest) error
	FindByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	FindByRequester(ctx context.Context, requesterID int64) ([]models.ItemRequest, error)
	FindOthers(ctx context.Context, requesterID int64, page Page) ([]models.ItemRequest, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByItemIDs(ctx context.Context, itemIDs []int64) ([]models.Comment, error)
}

// Store bundles the gorm-backed repositories.
type Store struct {
	Users    *UserStore
	Items    *ItemStore
	Bookings *BookingStore
	Requests *ItemRequestStore
	Comments *CommentStore
}

func New(db *gorm.DB) *Store {
	return &Store{
		Users:    NewUserStore(db),
		Items:    NewItemStore(db),
		Bookings: NewBookingStore(db),
		Requests: NewItemRequestStore(db),
		Comments: NewCommentStore(db),
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrReferenced
	default:
		return err
	}
}
