package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	uploaddomain "github.com/costplane/costplane/internal/upload/domain"
	"github.com/costplane/costplane/internal/upload/repository"
	"github.com/costplane/costplane/pkg/db"
	"github.com/costplane/costplane/pkg/tenantctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupUploadService(t *testing.T) (*gorm.DB, uploaddomain.Service, *uploaddomain.Upload) {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&uploaddomain.Upload{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{DB: dbConn, Log: zap.NewNop(), GenID: node, Repo: repository.Provide()})

	upload, err := svc.Create(context.Background(), node.Generate(), "aws", "cur-2026-08.csv")
	require.NoError(t, err)
	require.Equal(t, uploaddomain.StatusPending, upload.Status)

	return dbConn, svc, upload
}

func TestTransition_ForwardPath(t *testing.T) {
	_, svc, upload := setupUploadService(t)
	ctx := context.Background()

	got, err := svc.Transition(ctx, uploaddomain.TransitionRequest{UploadID: upload.ID, ToStatus: uploaddomain.StatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, uploaddomain.StatusProcessing, got.Status)

	got, err = svc.Transition(ctx, uploaddomain.TransitionRequest{UploadID: upload.ID, ToStatus: uploaddomain.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, uploaddomain.StatusCompleted, got.Status)
}

func TestTransition_BackwardIsConflict(t *testing.T) {
	dbConn, svc, upload := setupUploadService(t)
	ctx := context.Background()

	_, err := svc.Transition(ctx, uploaddomain.TransitionRequest{UploadID: upload.ID, ToStatus: uploaddomain.StatusProcessing})
	require.NoError(t, err)
	_, err = svc.Transition(ctx, uploaddomain.TransitionRequest{UploadID: upload.ID, ToStatus: uploaddomain.StatusCompleted})
	require.NoError(t, err)

	var before uploaddomain.Upload
	require.NoError(t, dbConn.First(&before, "id = ?", upload.ID).Error)

	_, err = svc.Transition(ctx, uploaddomain.TransitionRequest{UploadID: upload.ID, ToStatus: uploaddomain.StatusProcessing})
	require.ErrorIs(t, err, uploaddomain.ErrStatusConflict)

	// The rejected call left the persisted row untouched.
	var after uploaddomain.Upload
	require.NoError(t, dbConn.First(&after, "id = ?", upload.ID).Error)
	assert.Equal(t, uploaddomain.StatusCompleted, after.Status)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestTransition_SelfTransitionIsIdempotent(t *testing.T) {
	dbConn, svc, upload := setupUploadService(t)
	ctx := context.Background()

	_, err := svc.Transition(ctx, uploaddomain.TransitionRequest{UploadID: upload.ID, ToStatus: uploaddomain.StatusProcessing})
	require.NoError(t, err)

	got, err := svc.Transition(ctx, uploaddomain.TransitionRequest{UploadID: upload.ID, ToStatus: uploaddomain.StatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, uploaddomain.StatusProcessing, got.Status)

	var count int64
	require.NoError(t, dbConn.Model(&uploaddomain.Upload{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTransition_FailedIsTerminal(t *testing.T) {
	_, svc, upload := setupUploadService(t)
	ctx := context.Background()

	got, err := svc.Transition(ctx, uploaddomain.TransitionRequest{
		UploadID: upload.ID,
		ToStatus: uploaddomain.StatusFailed,
		Error:    "bucket unreachable",
	})
	require.NoError(t, err)
	assert.Equal(t, uploaddomain.StatusFailed, got.Status)
	assert.Equal(t, "bucket unreachable", got.Error)

	_, err = svc.Transition(ctx, uploaddomain.TransitionRequest{UploadID: upload.ID, ToStatus: uploaddomain.StatusProcessing})
	require.ErrorIs(t, err, uploaddomain.ErrStatusConflict)
}

func TestTransition_UnknownStatusAndUpload(t *testing.T) {
	_, svc, upload := setupUploadService(t)
	ctx := context.Background()

	_, err := svc.Transition(ctx, uploaddomain.TransitionRequest{UploadID: upload.ID, ToStatus: "ARCHIVED"})
	require.ErrorIs(t, err, uploaddomain.ErrInvalidStatus)

	_, err = svc.Transition(ctx, uploaddomain.TransitionRequest{UploadID: 42, ToStatus: uploaddomain.StatusProcessing})
	require.ErrorIs(t, err, uploaddomain.ErrNotFound)
}

func TestCreate_RejectsMismatchedTenantContext(t *testing.T) {
	_, svc, _ := setupUploadService(t)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	ownerID := node.Generate()
	otherID := node.Generate()

	ctx := tenantctx.WithClientID(context.Background(), ownerID)
	_, err = svc.Create(ctx, otherID, "aws", "cur.csv")
	require.ErrorIs(t, err, uploaddomain.ErrClientMismatch)

	upload, err := svc.Create(ctx, ownerID, "aws", "cur.csv")
	require.NoError(t, err)
	assert.Equal(t, ownerID, upload.ClientID)
}

func TestCanTransition_Table(t *testing.T) {
	cases := []struct {
		from, to uploaddomain.Status
		ok       bool
	}{
		{uploaddomain.StatusPending, uploaddomain.StatusProcessing, true},
		{uploaddomain.StatusPending, uploaddomain.StatusCompleted, false},
		{uploaddomain.StatusPending, uploaddomain.StatusFailed, true},
		{uploaddomain.StatusProcessing, uploaddomain.StatusCompleted, true},
		{uploaddomain.StatusProcessing, uploaddomain.StatusFailed, true},
		{uploaddomain.StatusCompleted, uploaddomain.StatusProcessing, false},
		{uploaddomain.StatusCompleted, uploaddomain.StatusCompleted, true},
		{uploaddomain.StatusFailed, uploaddomain.StatusPending, false},
		{"ARCHIVED", uploaddomain.StatusPending, false},
		{uploaddomain.StatusPending, "ARCHIVED", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, uploaddomain.CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
