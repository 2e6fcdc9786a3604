package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shareit/pkg/apperrors"
	"shareit/pkg/dto"
	"shareit/pkg/models"
	"shareit/pkg/storage"

	"github.com/rs/zerolog"
)

type ItemService struct {
	items    storage.ItemRepository
	bookings storage.BookingRepository
	comments storage.CommentRepository
	requests storage.ItemRequestRepository
	users    *UserService
	logger   *zerolog.Logger
	now      Clock
}

func NewItemService(
	items storage.ItemRepository,
	bookings storage.BookingRepository,
	comments storage.CommentRepository,
	requests storage.ItemRequestRepository,
	users *UserService,
	logger *zerolog.Logger,
) *ItemService {
	return &ItemService{
		items:    items,
		bookings: bookings,
		comments: comments,
		requests: requests,
		users:    users,
		logger:   logger,
		now:      systemClock,
	}
}

func (s *ItemService) Create(ctx context.Context, ownerID int64, req dto.ItemCreate) (dto.Item, error) {
	s.logger.Info().Int64("user_id", ownerID).Str("name", req.Name).Msg("creating item")

	if err := req.Validate(); err != nil {
		return dto.Item{}, err
	}
	if _, err := s.users.get(ctx, ownerID); err != nil {
		return dto.Item{}, err
	}
	if req.RequestID != nil {
		_, err := s.requests.FindByID(ctx, *req.RequestID)
		if errors.Is(err, storage.ErrNotFound) {
			return dto.Item{}, requestNotFound(*req.RequestID)
		}
		if err != nil {
			return dto.Item{}, err
		}
	}

	item := models.Item{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Available:   *req.Available,
		OwnerID:     ownerID,
		RequestID:   req.RequestID,
	}
	if err := s.items.Create(ctx, &item); err != nil {
		return dto.Item{}, err
	}
	s.logger.Info().Int64("item_id", item.ID).Msg("item created")
	return dto.FromItem(item), nil
}

// Update applies the non-nil fields of req. Only the owner may update.
func (s *ItemService) Update(ctx context.Context, itemID, userID int64, req dto.ItemUpdate) (dto.Item, error) {
	s.logger.Info().Int64("item_id", itemID).Int64("user_id", userID).Msg("updating item")

	if err := req.Validate(); err != nil {
		return dto.Item{}, err
	}
	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return dto.Item{}, err
	}
	if item.OwnerID != userID {
		return dto.Item{}, apperrors.Forbiddenf("user %d is not the owner of item %d", userID, itemID)
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if err := s.items.Update(ctx, item); err != nil {
		return dto.Item{}, err
	}
	return dto.FromItem(*item), nil
}

func (s *ItemService) Delete(ctx context.Context, itemID, userID int64) error {
	s.logger.Info().Int64("item_id", itemID).Int64("user_id", userID).Msg("deleting item")

	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != userID {
		return apperrors.Forbiddenf("user %d is not the owner of item %d", userID, itemID)
	}
	if err := s.items.Delete(ctx, itemID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return itemNotFound(itemID)
		}
		return err
	}
	return nil
}

// FindByID returns the item with its comments. Booking neighbours are only
// shown to the owner.
func (s *ItemService) FindByID(ctx context.Context, itemID, userID int64) (dto.ItemEnhanced, error) {
	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return dto.ItemEnhanced{}, err
	}
	withBookings := item.OwnerID == userID
	enriched, err := s.enrich(ctx, []models.Item{*item}, withBookings)
	if err != nil {
		return dto.ItemEnhanced{}, err
	}
	return enriched[0], nil
}

func (s *ItemService) FindByOwner(ctx context.Context, ownerID int64, from, size int) ([]dto.ItemEnhanced, error) {
	if _, err := s.users.get(ctx, ownerID); err != nil {
		return nil, err
	}
	page, err := pageOf(from, size)
	if err != nil {
		return nil, err
	}
	items, err := s.items.FindByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, items, true)
}

// Search returns available items matching text. Blank text matches nothing.
func (s *ItemService) Search(ctx context.Context, text string, from, size int) ([]dto.Item, error) {
	page, err := pageOf(from, size)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []dto.Item{}, nil
	}
	items, err := s.items.Search(ctx, text, page)
	if err != nil {
		return nil, err
	}
	return dto.FromItems(items), nil
}

// AddComment requires the author to have finished an approved booking of the item.
func (s *ItemService) AddComment(ctx context.Context, itemID, authorID int64, req dto.CommentCreate) (dto.Comment, error) {
	s.logger.Info().Int64("item_id", itemID).Int64("user_id", authorID).Msg("adding comment")

	if err := req.Validate(); err != nil {
		return dto.Comment{}, err
	}
	author, err := s.users.get(ctx, authorID)
	if err != nil {
		return dto.Comment{}, err
	}
	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return dto.Comment{}, err
	}

	now := s.now()
	rented, err := s.bookings.ExistsCompleted(ctx, authorID, item.ID, now)
	if err != nil {
		return dto.Comment{}, err
	}
	if !rented {
		return dto.Comment{}, apperrors.Validationf("user never rented this item")
	}

	comment := models.Comment{
		Text:     strings.TrimSpace(req.Text),
		ItemID:   item.ID,
		AuthorID: author.ID,
		Created:  now,
	}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return dto.Comment{}, err
	}
	comment.Author = *author
	return dto.FromComment(comment), nil
}

// enrich attaches comments to every item and, when withBookings is set, the
// last and next approved bookings. Everything is fetched in three batch
// queries; candidates arrive sorted, so the first one seen per item wins.
func (s *ItemService) enrich(ctx context.Context, items []models.Item, withBookings bool) ([]dto.ItemEnhanced, error) {
	out := make([]dto.ItemEnhanced, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	comments, err := s.comments.FindByItemIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	commentsByItem := make(map[int64][]dto.Comment, len(items))
	for _, c := range comments {
		commentsByItem[c.ItemID] = append(commentsByItem[c.ItemID], dto.FromComment(c))
	}

	last := map[int64]*dto.BookingShort{}
	next := map[int64]*dto.BookingShort{}
	if withBookings {
		now := s.now()
		lastCandidates, err := s.bookings.FindLastApproved(ctx, ids, now)
		if err != nil {
			return nil, err
		}
		nextCandidates, err := s.bookings.FindNextApproved(ctx, ids, now)
		if err != nil {
			return nil, err
		}
		firstPerItem(last, lastCandidates)
		firstPerItem(next, nextCandidates)
	}

	for _, item := range items {
		comments := commentsByItem[item.ID]
		if comments == nil {
			comments = []dto.Comment{}
		}
		out = append(out, dto.ItemEnhanced{
			Item:        dto.FromItem(item),
			LastBooking: last[item.ID],
			NextBooking: next[item.ID],
			Comments:    comments,
		})
	}
	return out, nil
}

func firstPerItem(dst map[int64]*dto.BookingShort, bookings []models.Booking) {
	for _, b := range bookings {
		if _, seen := dst[b.ItemID]; !seen {
			dst[b.ItemID] = dto.FromBookingShort(b)
		}
	}
}

func (s *ItemService) findItem(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, itemNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find item %d: %w", id, err)
	}
	return item, nil
}

func requestNotFound(id int64) error {
	return apperrors.NotFoundf("item request with id %d not found", id)
}
