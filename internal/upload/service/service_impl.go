package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	uploaddomain "github.com/costplane/costplane/internal/upload/domain"
	"github.com/costplane/costplane/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  uploaddomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  uploaddomain.Repository
}

func New(p Params) uploaddomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("upload.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, clientID snowflake.ID, provider, fileName string) (*uploaddomain.Upload, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, uploaddomain.ErrInvalidProvider
	}
	if ctxClient, ok := tenantctx.ClientID(ctx); ok && ctxClient != clientID {
		return nil, uploaddomain.ErrClientMismatch
	}

	now := time.Now().UTC()
	upload := &uploaddomain.Upload{
		ID:        s.genID.Generate(),
		ClientID:  clientID,
		Provider:  provider,
		FileName:  strings.TrimSpace(fileName),
		Status:    uploaddomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, upload); err != nil {
		return nil, err
	}
	return upload, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*uploaddomain.Upload, error) {
	upload, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, uploaddomain.ErrNotFound
	}
	return upload, nil
}

// Transition advances the upload through the status state machine.
// Re-applying the current status succeeds without touching the row;
// an illegal transition fails with a conflict and leaves the persisted
// row unchanged.
func (s *Service) Transition(ctx context.Context, req uploaddomain.TransitionRequest) (*uploaddomain.Upload, error) {
	if !uploaddomain.IsValidStatus(req.ToStatus) {
		return nil, uploaddomain.ErrInvalidStatus
	}

	upload, err := s.GetByID(ctx, req.UploadID)
	if err != nil {
		return nil, err
	}

	if upload.Status == req.ToStatus {
		return upload, nil
	}

	if !uploaddomain.CanTransition(upload.Status, req.ToStatus) {
		return nil, uploaddomain.NewStatusConflict(upload.Status, req.ToStatus)
	}

	updated, err := s.repo.UpdateStatus(ctx, s.db, upload.ID, upload.Status, req.ToStatus, req.Error)
	if err != nil {
		return nil, err
	}
	if !updated {
		// A concurrent writer moved the row first; re-read and report
		// the conflict against the fresh status.
		fresh, readErr := s.GetByID(ctx, req.UploadID)
		if readErr != nil {
			return nil, readErr
		}
		if fresh.Status == req.ToStatus {
			return fresh, nil
		}
		return nil, uploaddomain.NewStatusConflict(fresh.Status, req.ToStatus)
	}

	s.log.Info("upload status transitioned",
		zap.String("upload_id", upload.ID.String()),
		zap.String("from", string(upload.Status)),
		zap.String("to", string(req.ToStatus)),
	)

	return s.GetByID(ctx, req.UploadID)
}
