package model

import "github.com/google/uuid"

// CountingWorkflow tags how an item is quantified during a physical count.
type CountingWorkflow string

const (
	WorkflowUnitCount       CountingWorkflow = "unit_count"
	WorkflowContainerWeight CountingWorkflow = "container_weight"
	WorkflowBottleHybrid    CountingWorkflow = "bottle_hybrid"
	WorkflowKegWeight       CountingWorkflow = "keg_weight"
	WorkflowBatchWeight     CountingWorkflow = "batch_weight"
)

func (w CountingWorkflow) Valid() bool {
	switch w {
	case WorkflowUnitCount, WorkflowContainerWeight, WorkflowBottleHybrid, WorkflowKegWeight, WorkflowBatchWeight:
		return true
	}
	return false
}

// WeightBased reports whether the workflow produces a scale measurement
// subject to anomaly detection.
func (w CountingWorkflow) WeightBased() bool {
	switch w {
	case WorkflowContainerWeight, WorkflowBottleHybrid, WorkflowKegWeight, WorkflowBatchWeight:
		return true
	}
	return false
}

// ContainerType holds the physical parameters of a bottle, keg or bin.
// Weights in grams, capacity in milliliters.
type ContainerType struct {
	BaseModel
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name" validate:"required"`
	EmptyWeightG float64   `gorm:"not null" json:"empty_weight_g" validate:"gte=0"`
	FullWeightG  float64   `json:"full_weight_g"`
	CapacityML   float64   `json:"capacity_ml"`
}

// TareWeightG is the weight subtracted from a gross measurement to obtain
// net product weight.
func (ct *ContainerType) TareWeightG() float64 { return ct.EmptyWeightG }

// LiquidWeightG is the weight of the contents of one full container.
func (ct *ContainerType) LiquidWeightG() float64 { return ct.FullWeightG - ct.EmptyWeightG }

// InventoryItem is a countable SKU. Immutable during a count; the session
// snapshots its item total at creation time.
type InventoryItem struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_items_tenant_sku" json:"tenant_id"`
	SKU      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_items_tenant_sku" json:"sku" validate:"required"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Unit     string    `gorm:"type:varchar(20)" json:"unit"`
	PackSize *float64  `json:"pack_size,omitempty"`
	Barcode  string    `gorm:"type:varchar(64);index" json:"barcode,omitempty"`

	Workflow CountingWorkflow `gorm:"type:varchar(20);not null;default:'unit_count'" json:"counting_workflow" validate:"omitempty,workflow"`

	SupportsPartialUnits bool `gorm:"default:false" json:"supports_partial_units"`
	RequiresContainer    bool `gorm:"default:false" json:"requires_container"`
	IsBatchTracked       bool `gorm:"default:false" json:"is_batch_tracked"`
	IsActive             bool `gorm:"default:true" json:"is_active"`

	// Weight of one unit of product, for the container_weight workflow.
	UnitWeightG *float64 `json:"unit_weight_g,omitempty"`

	ContainerTypeID *uuid.UUID     `gorm:"type:uuid" json:"container_type_id,omitempty"`
	ContainerType   *ContainerType `gorm:"foreignKey:ContainerTypeID" json:"container_type,omitempty"`
}
