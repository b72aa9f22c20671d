// Package counting normalizes heterogeneous count inputs (manual entry,
// container weighing, bottle-hybrid weighing) into one canonical shape.
// All transforms are side-effect-free; anomaly screening happens afterwards.
package counting

import (
	"math"
	"time"

	"go-stockcount-ws/internal/model"
	"go-stockcount-ws/pkg/apperr"

	"github.com/google/uuid"
)

// Input is the canonical normalized count.
type Input struct {
	ItemID    uuid.UUID              `json:"item_id"`
	Method    model.CountingWorkflow `json:"counting_method"`
	Quantity  float64                `json:"counted_quantity"`
	RawInputs map[string]float64     `json:"raw_inputs"`
	CountedAt time.Time              `json:"counted_at"`
}

// NormalizeManual validates a direct quantity entry. Quantity must be
// non-negative and integral unless the item supports partial units.
func NormalizeManual(item *model.InventoryItem, quantity float64, at time.Time) (*Input, error) {
	if quantity < 0 {
		return nil, apperr.Validation("quantity must be non-negative, got %v", quantity)
	}
	if !item.SupportsPartialUnits && quantity != math.Trunc(quantity) {
		return nil, apperr.Validation("item %s does not support partial units, got %v", item.SKU, quantity)
	}
	return &Input{
		ItemID:    item.ID,
		Method:    model.WorkflowUnitCount,
		Quantity:  quantity,
		RawInputs: map[string]float64{"quantity": quantity},
		CountedAt: at,
	}, nil
}

// NormalizeContainerWeight derives quantity from a gross scale reading:
// (measured - tare) / unit weight. Negative or implausible results are not
// clamped here; the anomaly detector surfaces them.
func NormalizeContainerWeight(item *model.InventoryItem, grossWeightG, tareWeightG float64, at time.Time) (*Input, error) {
	if item.UnitWeightG == nil || *item.UnitWeightG <= 0 {
		return nil, apperr.Validation("item %s has no positive unit weight for container counting", item.SKU)
	}
	quantity := (grossWeightG - tareWeightG) / *item.UnitWeightG
	return &Input{
		ItemID:   item.ID,
		Method:   model.WorkflowContainerWeight,
		Quantity: quantity,
		RawInputs: map[string]float64{
			"measured_weight_g": grossWeightG,
			"tare_weight_g":     tareWeightG,
			"unit_weight_g":     *item.UnitWeightG,
		},
		CountedAt: at,
	}, nil
}

// NormalizeBottleHybrid combines an integer count of sealed bottles with a
// single aggregate weight covering every opened bottle. The partial
// equivalent is floored at zero for the reported quantity; a sub-tare
// aggregate still reaches the detector as a tare anomaly because the raw
// measurement is preserved in RawInputs and MeasuredWeight.
func NormalizeBottleHybrid(item *model.InventoryItem, fullBottles int, aggregateWeightG float64, at time.Time) (*Input, error) {
	if fullBottles < 0 {
		return nil, apperr.Validation("full bottle count must be non-negative, got %d", fullBottles)
	}
	ct := item.ContainerType
	if ct == nil {
		return nil, apperr.Validation("item %s has no container type for bottle-hybrid counting", item.SKU)
	}
	liquid := ct.LiquidWeightG()
	if liquid <= 0 {
		return nil, apperr.Validation("container type %s has no positive liquid weight", ct.Name)
	}
	partial := (aggregateWeightG - ct.EmptyWeightG) / liquid
	if partial < 0 {
		partial = 0
	}
	return &Input{
		ItemID:   item.ID,
		Method:   model.WorkflowBottleHybrid,
		Quantity: float64(fullBottles) + partial,
		RawInputs: map[string]float64{
			"full_bottles":       float64(fullBottles),
			"aggregate_weight_g": aggregateWeightG,
			"empty_weight_g":     ct.EmptyWeightG,
			"full_weight_g":      ct.FullWeightG,
		},
		CountedAt: at,
	}, nil
}
