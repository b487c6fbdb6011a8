package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/repo"
)

func TestWorkspaceTransition(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	tests := []struct {
		name    string
		from    models.WorkspaceState
		to      models.WorkspaceState
		allowed bool
	}{
		{"draft to working", models.WorkspaceDraft, models.WorkspaceWorking, true},
		{"working to archived", models.WorkspaceWorking, models.WorkspaceArchived, true},
		{"archived is terminal", models.WorkspaceArchived, models.WorkspaceWorking, false},
		{"working back to draft", models.WorkspaceWorking, models.WorkspaceDraft, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{}
			log, _ := testLogger()
			svc := NewWorkspaceService(store, log)

			store.On("GetWorkspace", ctx, id).Return(&models.Workspace{ID: id, State: tt.from}, nil)
			if tt.allowed {
				store.On("SetWorkspaceState", ctx, id, tt.from, tt.to).Return(&models.Workspace{ID: id, State: tt.to}, nil)
			}

			got, err := svc.Transition(ctx, id, tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, got.State)
			} else {
				assert.ErrorIs(t, err, models.ErrInvalid)
				store.AssertNotCalled(t, "SetWorkspaceState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestWorkspaceTransition_ConcurrentChangeConflicts(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewWorkspaceService(store, log)

	store.On("GetWorkspace", ctx, id).Return(&models.Workspace{ID: id, State: models.WorkspaceDraft}, nil)
	store.On("SetWorkspaceState", ctx, id, models.WorkspaceDraft, models.WorkspaceWorking).Return(nil, repo.ErrConflict)

	_, err := svc.Transition(ctx, id, models.WorkspaceWorking)
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestStartSetup_DefaultsEngine(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewWorkspaceService(store, log)

	runID := uuid.New()
	store.On("BeginWorkspaceSetup", mock.Anything, id, mock.MatchedBy(func(in models.ScenarioRunInput) bool {
		return in.Engine == models.DefaultEngine && in.WorkspaceID == id && in.Prompt != nil && *in.Prompt == "map the supply chain"
	})).Return(
		&models.Workspace{ID: id, State: models.WorkspaceSetup, SetupRunID: &runID},
		&models.ScenarioRun{ID: runID, Engine: models.DefaultEngine, Status: models.RunQueued},
		nil)

	w, run, err := svc.StartSetup(ctx, id, models.SetupRequest{Prompt: "map the supply chain"})
	require.NoError(t, err)
	assert.Equal(t, models.WorkspaceSetup, w.State)
	assert.Equal(t, runID, *w.SetupRunID)
	assert.Equal(t, models.RunQueued, run.Status)
}

func TestUpsertMember(t *testing.T) {
	ctx := context.Background()
	ws, user := uuid.New(), uuid.New()
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewWorkspaceService(store, log)

	store.On("UpsertMember", ctx, ws, user, models.MemberViewer).Return(&models.WorkspaceMember{Role: models.MemberViewer}, nil)

	m, err := svc.UpsertMember(ctx, ws, user, "")
	require.NoError(t, err)
	assert.Equal(t, models.MemberViewer, m.Role)

	_, err = svc.UpsertMember(ctx, ws, user, "admin")
	assert.ErrorIs(t, err, models.ErrInvalid)
}

func TestUpdate_EmptyPatchReadsCurrent(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewWorkspaceService(store, log)

	store.On("GetWorkspace", ctx, id).Return(&models.Workspace{ID: id, Version: 3}, nil)

	w, err := svc.Update(ctx, id, models.WorkspacePatch{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, w.Version)
	store.AssertNotCalled(t, "UpdateWorkspace", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveSetupArtifacts_RejectsInvalidJSON(t *testing.T) {
	store := &MockStore{}
	log, _ := testLogger()
	svc := NewWorkspaceService(store, log)

	_, err := svc.SaveSetupArtifacts(context.Background(), uuid.New(), SetupArtifacts{DataScope: []byte(`{not json`)})
	assert.ErrorIs(t, err, models.ErrInvalid)
}
