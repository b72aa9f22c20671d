package counting

import (
	"testing"
	"time"

	"go-stockcount-ws/internal/model"
	"go-stockcount-ws/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestNormalizeManual(t *testing.T) {
	now := time.Now()
	item := &model.InventoryItem{SKU: "FLOUR-25"}

	t.Run("whole units", func(t *testing.T) {
		input, err := NormalizeManual(item, 12, now)
		require.NoError(t, err)
		assert.Equal(t, model.WorkflowUnitCount, input.Method)
		assert.Equal(t, 12.0, input.Quantity)
		assert.Equal(t, now, input.CountedAt)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := NormalizeManual(item, -1, now)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("fractional rejected without partial support", func(t *testing.T) {
		_, err := NormalizeManual(item, 2.5, now)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("fractional allowed with partial support", func(t *testing.T) {
		partial := &model.InventoryItem{SKU: "OIL-5L", SupportsPartialUnits: true}
		input, err := NormalizeManual(partial, 2.5, now)
		require.NoError(t, err)
		assert.Equal(t, 2.5, input.Quantity)
	})

	t.Run("zero is a valid count", func(t *testing.T) {
		input, err := NormalizeManual(item, 0, now)
		require.NoError(t, err)
		assert.Equal(t, 0.0, input.Quantity)
	})
}

func TestNormalizeContainerWeight(t *testing.T) {
	now := time.Now()
	item := &model.InventoryItem{SKU: "RICE-1K", UnitWeightG: floatPtr(1000)}

	t.Run("derives quantity from net weight", func(t *testing.T) {
		// 5.5kg gross on a 500g bin of 1kg units.
		input, err := NormalizeContainerWeight(item, 5500, 500, now)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, input.Quantity, 1e-9)
		assert.Equal(t, 5500.0, input.RawInputs["measured_weight_g"])
		assert.Equal(t, 500.0, input.RawInputs["tare_weight_g"])
	})

	t.Run("negative result not clamped", func(t *testing.T) {
		// Below-tare reading yields a negative quantity; the anomaly
		// detector, not the normalizer, decides what to do with it.
		input, err := NormalizeContainerWeight(item, 200, 500, now)
		require.NoError(t, err)
		assert.InDelta(t, -0.3, input.Quantity, 1e-9)
	})

	t.Run("requires positive unit weight", func(t *testing.T) {
		_, err := NormalizeContainerWeight(&model.InventoryItem{SKU: "X"}, 1000, 0, now)
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, err = NormalizeContainerWeight(&model.InventoryItem{SKU: "X", UnitWeightG: floatPtr(0)}, 1000, 0, now)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

func TestNormalizeBottleHybrid(t *testing.T) {
	now := time.Now()
	// 750ml spirit bottle: 500g empty, 1250g full, 750g of liquid.
	item := &model.InventoryItem{
		SKU: "GIN-750",
		ContainerType: &model.ContainerType{
			Name:         "750ml bottle",
			EmptyWeightG: 500,
			FullWeightG:  1250,
			CapacityML:   750,
		},
	}

	t.Run("full bottles plus partial", func(t *testing.T) {
		// Two sealed bottles plus an open one weighing 1062.5g:
		// (1062.5 - 500) / 750 = 0.75 of a bottle.
		input, err := NormalizeBottleHybrid(item, 2, 1062.5, now)
		require.NoError(t, err)
		assert.InDelta(t, 2.75, input.Quantity, 1e-9)
		assert.Equal(t, model.WorkflowBottleHybrid, input.Method)
		assert.Equal(t, 1062.5, input.RawInputs["aggregate_weight_g"])
	})

	t.Run("sub-tare aggregate floors partial at zero", func(t *testing.T) {
		input, err := NormalizeBottleHybrid(item, 3, 400, now)
		require.NoError(t, err)
		// Reported quantity stays at the sealed count; the raw aggregate
		// survives in RawInputs for the detector to flag.
		assert.InDelta(t, 3.0, input.Quantity, 1e-9)
		assert.Equal(t, 400.0, input.RawInputs["aggregate_weight_g"])
	})

	t.Run("negative full count rejected", func(t *testing.T) {
		_, err := NormalizeBottleHybrid(item, -1, 1000, now)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("missing container type rejected", func(t *testing.T) {
		_, err := NormalizeBottleHybrid(&model.InventoryItem{SKU: "Y"}, 1, 1000, now)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("non-positive liquid weight rejected", func(t *testing.T) {
		bad := &model.InventoryItem{
			SKU:           "Z",
			ContainerType: &model.ContainerType{Name: "broken", EmptyWeightG: 500, FullWeightG: 500},
		}
		_, err := NormalizeBottleHybrid(bad, 1, 1000, now)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}
