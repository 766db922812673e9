package voice

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"gorm.io/gorm"
)

type AICharacterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chars []*types.AICharacter) ([]*types.AICharacter, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AICharacter, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.AICharacter, error)
	List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.AICharacter, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) (*types.AICharacter, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type aiCharacterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAICharacterRepo(db *gorm.DB, baseLog *logger.Logger) AICharacterRepo {
	repoLog := baseLog.With("repo", "AICharacterRepo")
	return &aiCharacterRepo{db: db, log: repoLog}
}

func (ar *aiCharacterRepo) Create(ctx context.Context, tx *gorm.DB, chars []*types.AICharacter) ([]*types.AICharacter, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(chars) == 0 {
		return []*types.AICharacter{}, nil
	}
	for _, c := range chars {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(ctx).Create(&chars).Error; err != nil {
		return nil, err
	}
	return chars, nil
}

func (ar *aiCharacterRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AICharacter, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var c types.AICharacter
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (ar *aiCharacterRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.AICharacter, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.AICharacter
	if err := transaction.WithContext(ctx).
		Where("lower(name) = lower(?)", strings.TrimSpace(name)).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (ar *aiCharacterRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*types.AICharacter, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	q := transaction.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var results []*types.AICharacter
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Update applies column updates and returns the fresh row, or nil when id is unknown.
func (ar *aiCharacterRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) (*types.AICharacter, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(updates) > 0 {
		res := transaction.WithContext(ctx).
			Model(&types.AICharacter{}).
			Where("id = ?", id).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return ar.GetByID(ctx, transaction, id)
}

func (ar *aiCharacterRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.AICharacter{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
