package voice

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"gorm.io/gorm"
)

type VapiCallRepo interface {
	Create(ctx context.Context, tx *gorm.DB, call *types.VapiCall) (*types.VapiCall, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VapiCall, error)
	GetByProviderCallID(ctx context.Context, tx *gorm.DB, providerCallID string) (*types.VapiCall, error)
	Save(ctx context.Context, tx *gorm.DB, call *types.VapiCall) error
}

type vapiCallRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVapiCallRepo(db *gorm.DB, baseLog *logger.Logger) VapiCallRepo {
	repoLog := baseLog.With("repo", "VapiCallRepo")
	return &vapiCallRepo{db: db, log: repoLog}
}

func (vr *vapiCallRepo) Create(ctx context.Context, tx *gorm.DB, call *types.VapiCall) (*types.VapiCall, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if call.ID == uuid.Nil {
		call.ID = uuid.New()
	}
	if call.Status == "" {
		call.Status = types.CallInitiating
	}
	if err := transaction.WithContext(ctx).Create(call).Error; err != nil {
		return nil, err
	}
	return call, nil
}

func (vr *vapiCallRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VapiCall, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	var c types.VapiCall
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (vr *vapiCallRepo) GetByProviderCallID(ctx context.Context, tx *gorm.DB, providerCallID string) (*types.VapiCall, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if providerCallID == "" {
		return nil, nil
	}
	var results []*types.VapiCall
	if err := transaction.WithContext(ctx).
		Where("provider_call_id = ?", providerCallID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (vr *vapiCallRepo) Save(ctx context.Context, tx *gorm.DB, call *types.VapiCall) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	return transaction.WithContext(ctx).Save(call).Error
}
