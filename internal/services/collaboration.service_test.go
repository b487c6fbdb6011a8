package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/models"
)

func TestTransitionRun(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	boom := "engine crashed"

	tests := []struct {
		name    string
		from    models.RunStatus
		t       models.RunTransition
		allowed bool
	}{
		{"queued to running", models.RunQueued, models.RunTransition{Status: models.RunRunning}, true},
		{"queued to cancelled", models.RunQueued, models.RunTransition{Status: models.RunCancelled}, true},
		{"running to failed with error", models.RunRunning, models.RunTransition{Status: models.RunFailed, ErrorMessage: &boom}, true},
		{"running back to queued", models.RunRunning, models.RunTransition{Status: models.RunQueued}, false},
		{"terminal run is frozen", models.RunSucceeded, models.RunTransition{Status: models.RunRunning}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{}
			log, _ := testLogger()
			svc := NewCollaborationService(store, log)
			store.On("GetRun", ctx, id).Return(&models.ScenarioRun{ID: id, Status: tt.from}, nil)
			if tt.allowed {
				store.On("TransitionRun", ctx, id, tt.from, tt.t).Return(&models.ScenarioRun{ID: id, Status: tt.t.Status}, nil)
			}

			got, err := svc.TransitionRun(ctx, id, tt.t)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.t.Status, got.Status)
			} else {
				assert.ErrorIs(t, err, models.ErrInvalid)
				store.AssertNotCalled(t, "TransitionRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestTransitionRun_FailedNeedsMessage(t *testing.T) {
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewCollaborationService(store, log)

	_, err := svc.TransitionRun(context.Background(), uuid.New(), models.RunTransition{Status: models.RunFailed})
	assert.ErrorIs(t, err, models.ErrInvalid)
	store.AssertNotCalled(t, "GetRun", mock.Anything, mock.Anything)
}

func TestUpdateProcessing_Reprocess(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewCollaborationService(store, log)

	u := models.ProcessingUpdate{Status: models.ProcessingQueued}
	store.On("GetAttachment", ctx, id).Return(&models.ScratchpadAttachment{ID: id, ProcessingStatus: models.ProcessingFailed}, nil)
	store.On("UpdateAttachmentProcessing", ctx, id, models.ProcessingFailed, u).
		Return(&models.ScratchpadAttachment{ID: id, ProcessingStatus: models.ProcessingQueued}, nil)

	a, err := svc.UpdateProcessing(ctx, id, u)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingQueued, a.ProcessingStatus)
}

func TestUpdateProcessing_SkipsPipeline(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewCollaborationService(store, log)

	store.On("GetAttachment", ctx, id).Return(&models.ScratchpadAttachment{ID: id, ProcessingStatus: models.ProcessingUnprocessed}, nil)

	_, err := svc.UpdateProcessing(ctx, id, models.ProcessingUpdate{Status: models.ProcessingCompleted})
	assert.ErrorIs(t, err, models.ErrInvalid)
}
