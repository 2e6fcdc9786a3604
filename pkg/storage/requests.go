package storage

import (
	"context"
	"fmt"

	"shareit/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemRequestStore struct {
	db *gorm.DB
}

func NewItemRequestStore(db *gorm.DB) *ItemRequestStore {
	return &ItemRequestStore{db: db}
}

func (s *ItemRequestStore) Create(ctx context.Context, request *models.ItemRequest) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(request).Error; err != nil {
		return fmt.Errorf("create item request: %w", translate(err))
	}
	return nil
}

func (s *ItemRequestStore) FindByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	var request models.ItemRequest
	if err := s.db.WithContext(ctx).Preload("Requester").First(&request, id).Error; err != nil {
		return nil, translate(err)
	}
	return &request, nil
}

func (s *ItemRequestStore) FindByRequester(ctx context.Context, requesterID int64) ([]models.ItemRequest, error) {
	var requests []models.ItemRequest
	err := s.db.WithContext(ctx).
		Preload("Requester").
		Where("requester_id = ?", requesterID).
		Order("created ASC").Order("id ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("list requests of user %d: %w", requesterID, err)
	}
	return requests, nil
}

func (s *ItemRequestStore) FindOthers(ctx context.Context, requesterID int64, page Page) ([]models.ItemRequest, error) {
	var requests []models.ItemRequest
	q := s.db.WithContext(ctx).
		Preload("Requester").
		Where("requester_id <> ?", requesterID).
		Order("created DESC").Order("id DESC")
	if err := page.apply(q).Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("list requests of others: %w", err)
	}
	return requests, nil
}
