package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shareit/pkg/dto"
	"shareit/pkg/models"
	"shareit/pkg/storage"

	"github.com/rs/zerolog"
)

type ItemRequestService struct {
	requests storage.ItemRequestRepository
	items    storage.ItemRepository
	users    *UserService
	logger   *zerolog.Logger
	now      Clock
}

func NewItemRequestService(requests storage.ItemRequestRepository, items storage.ItemRepository, users *UserService, logger *zerolog.Logger) *ItemRequestService {
	return &ItemRequestService{
		requests: requests,
		items:    items,
		users:    users,
		logger:   logger,
		now:      systemClock,
	}
}

func (s *ItemRequestService) Create(ctx context.Context, requesterID int64, req dto.ItemRequestCreate) (dto.ItemRequest, error) {
	s.logger.Info().Int64("user_id", requesterID).Msg("creating item request")

	if err := req.Validate(); err != nil {
		return dto.ItemRequest{}, err
	}
	requester, err := s.users.get(ctx, requesterID)
	if err != nil {
		return dto.ItemRequest{}, err
	}

	request := models.ItemRequest{
		Description: strings.TrimSpace(req.Description),
		RequesterID: requester.ID,
		Created:     s.now(),
	}
	if err := s.requests.Create(ctx, &request); err != nil {
		return dto.ItemRequest{}, err
	}
	request.Requester = *requester

	s.logger.Info().Int64("request_id", request.ID).Msg("item request created")
	return dto.FromItemRequest(request, nil), nil
}

// FindOwn lists the caller's requests, oldest first.
func (s *ItemRequestService) FindOwn(ctx context.Context, requesterID int64) ([]dto.ItemRequest, error) {
	if _, err := s.users.get(ctx, requesterID); err != nil {
		return nil, err
	}
	requests, err := s.requests.FindByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

// FindOthers lists everybody else's requests, newest first.
func (s *ItemRequestService) FindOthers(ctx context.Context, userID int64, from, size int) ([]dto.ItemRequest, error) {
	if _, err := s.users.get(ctx, userID); err != nil {
		return nil, err
	}
	page, err := pageOf(from, size)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.FindOthers(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

func (s *ItemRequestService) FindByID(ctx context.Context, requestID, userID int64) (dto.ItemRequest, error) {
	if _, err := s.users.get(ctx, userID); err != nil {
		return dto.ItemRequest{}, err
	}
	request, err := s.requests.FindByID(ctx, requestID)
	if errors.Is(err, storage.ErrNotFound) {
		return dto.ItemRequest{}, requestNotFound(requestID)
	}
	if err != nil {
		return dto.ItemRequest{}, fmt.Errorf("find item request %d: %w", requestID, err)
	}
	enriched, err := s.withItems(ctx, []models.ItemRequest{*request})
	if err != nil {
		return dto.ItemRequest{}, err
	}
	return enriched[0], nil
}

func (s *ItemRequestService) withItems(ctx context.Context, requests []models.ItemRequest) ([]dto.ItemRequest, error) {
	out := make([]dto.ItemRequest, 0, len(requests))
	if len(requests) == 0 {
		return out, nil
	}
	ids := make([]int64, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}
	items, err := s.items.FindByRequestIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byRequest := make(map[int64][]models.Item, len(requests))
	for _, item := range items {
		if item.RequestID != nil {
			byRequest[*item.RequestID] = append(byRequest[*item.RequestID], item)
		}
	}
	for _, r := range requests {
		out = append(out, dto.FromItemRequest(r, byRequest[r.ID]))
	}
	return out, nil
}
