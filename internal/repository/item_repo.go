package repository

import (
	"go-stockcount-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemRepository interface {
	Create(item *model.InventoryItem) error
	FindByID(tenantID, id uuid.UUID) (*model.InventoryItem, error)
	FindByBarcode(tenantID uuid.UUID, barcode string) (*model.InventoryItem, error)
	FindAll(tenantID uuid.UUID) ([]model.InventoryItem, error)
	CountActive(tenantID uuid.UUID) (int64, error)
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) Create(item *model.InventoryItem) error {
	return r.db.Create(item).Error
}

func (r *itemRepo) FindByID(tenantID, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.Preload("ContainerType").
		First(&item, "id = ? AND tenant_id = ?", id, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) FindByBarcode(tenantID uuid.UUID, barcode string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.Preload("ContainerType").
		First(&item, "barcode = ? AND tenant_id = ?", barcode, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) FindAll(tenantID uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.Preload("ContainerType").
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

// CountActive snapshots the number of countable items; sessions store it
// as total_items_count at creation time.
func (r *itemRepo) CountActive(tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.InventoryItem{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Count(&count).Error
	return count, err
}
