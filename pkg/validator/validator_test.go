package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-stockcount-ws/internal/model"
)

type itemPayload struct {
	LocationID uuid.UUID              `validate:"uuid_required"`
	Workflow   model.CountingWorkflow `validate:"omitempty,workflow"`
}

func TestUUIDRequired(t *testing.T) {
	errs := ValidateStruct(&itemPayload{})
	require.Len(t, errs, 1)
	assert.Equal(t, "uuid_required", errs[0].Tag)

	errs = ValidateStruct(&itemPayload{LocationID: uuid.New()})
	assert.Empty(t, errs)
}

func TestWorkflowTag(t *testing.T) {
	payload := &itemPayload{LocationID: uuid.New()}

	for _, w := range []model.CountingWorkflow{
		model.WorkflowUnitCount,
		model.WorkflowContainerWeight,
		model.WorkflowBottleHybrid,
		model.WorkflowKegWeight,
		model.WorkflowBatchWeight,
	} {
		payload.Workflow = w
		assert.Empty(t, ValidateStruct(payload), "workflow %s", w)
	}

	payload.Workflow = "guess"
	errs := ValidateStruct(payload)
	require.Len(t, errs, 1)
	assert.Equal(t, "workflow", errs[0].Tag)

	// Absent tag falls back to the unit_count column default.
	payload.Workflow = ""
	assert.Empty(t, ValidateStruct(payload))
}

func TestValidateStructReportsEveryFailure(t *testing.T) {
	errs := ValidateStruct(&itemPayload{Workflow: "guess"})
	assert.Len(t, errs, 2)
}
