package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/byteshifted/mailpanel/internal/models"
	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/internal/utils"
)

// AliasUpdate carries a partial update; nil fields are left unchanged.
type AliasUpdate struct {
	Destination *string
	IsActive    *bool
}

type AliasRepository interface {
	Create(ctx context.Context, alias *models.Alias) (*models.Alias, error)
	GetUserAlias(ctx context.Context, userID, id string) (*models.Alias, error)
	ListByUser(ctx context.Context, userID string) ([]models.Alias, error)
	Update(ctx context.Context, id string, update AliasUpdate) (*models.Alias, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type aliasRepository struct {
	db *gorm.DB
}

func NewAliasRepository(db *gorm.DB) AliasRepository {
	return &aliasRepository{
		db: db,
	}
}

func (r *aliasRepository) Create(ctx context.Context, alias *models.Alias) (*models.Alias, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "AliasRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("address", alias.Address)

	err := r.db.WithContext(ctx).Create(alias).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return alias, nil
}

func (r *aliasRepository) GetUserAlias(ctx context.Context, userID, id string) (*models.Alias, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "AliasRepository.GetUserAlias")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("alias_id", id)

	var alias models.Alias
	err := r.db.WithContext(ctx).
		Preload("Domain").
		Where("id = ? AND user_id = ?", id, userID).
		First(&alias).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &alias, nil
}

func (r *aliasRepository) ListByUser(ctx context.Context, userID string) ([]models.Alias, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "AliasRepository.ListByUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var aliases []models.Alias
	err := r.db.WithContext(ctx).
		Preload("Domain").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&aliases).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return aliases, nil
}

func (r *aliasRepository) Update(ctx context.Context, id string, update AliasUpdate) (*models.Alias, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "AliasRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("alias_id", id)

	columns := map[string]interface{}{
		"updated_at": utils.Now(),
	}
	if update.Destination != nil {
		columns["destination"] = *update.Destination
	}
	if update.IsActive != nil {
		columns["is_active"] = *update.IsActive
	}

	err := r.db.WithContext(ctx).
		Model(&models.Alias{}).
		Where("id = ?", id).
		Updates(columns).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	var alias models.Alias
	err = r.db.WithContext(ctx).
		Preload("Domain").
		Where("id = ?", id).
		First(&alias).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &alias, nil
}

func (r *aliasRepository) Delete(ctx context.Context, id string) (bool, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "AliasRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("alias_id", id)

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Alias{})
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
