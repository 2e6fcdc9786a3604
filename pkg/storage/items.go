package storage

import (
	"context"
	"fmt"
	"strings"

	"shareit/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemStore struct {
	db *gorm.DB
}

func NewItemStore(db *gorm.DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Create(ctx context.Context, item *models.Item) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return fmt.Errorf("create item: %w", translate(err))
	}
	return nil
}

func (s *ItemStore) Update(ctx context.Context, item *models.Item) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error; err != nil {
		return fmt.Errorf("update item %d: %w", item.ID, translate(err))
	}
	return nil
}

func (s *ItemStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&models.Item{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete item %d: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ItemStore) FindByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).Preload("Owner").First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *ItemStore) FindByOwner(ctx context.Context, ownerID int64, page Page) ([]models.Item, error) {
	var items []models.Item
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC")
	if err := page.apply(q).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items of owner %d: %w", ownerID, err)
	}
	return items, nil
}

// likeEscaper makes LIKE wildcards in user text match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches available items whose name or description contains text,
// ignoring case. Wildcards in text are matched literally.
func (s *ItemStore) Search(ctx context.Context, text string, page Page) ([]models.Item, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
	var items []models.Item
	q := s.db.WithContext(ctx).
		Where("available = ?", true).
		Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("id ASC")
	if err := page.apply(q).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return items, nil
}

func (s *ItemStore) FindByRequestIDs(ctx context.Context, requestIDs []int64) ([]models.Item, error) {
	if len(requestIDs) == 0 {
		return nil, nil
	}
	var items []models.Item
	err := s.db.WithContext(ctx).
		Where("request_id IN ?", requestIDs).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list items by request: %w", err)
	}
	return items, nil
}
