package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/byteshifted/mailpanel/internal/models"
	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/internal/utils"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetUserStats(ctx context.Context, userID string) (*models.UserStats, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

// Upsert inserts the user on first login and refreshes the identity fields
// on every later one, keyed by the gateway's stable subject id.
func (r *userRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "UserRepository.Upsert")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("user_id", user.ID)

	now := utils.Now()
	user.UpdatedAt = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email", "first_name", "last_name", "profile_image_url", "updated_at",
			}),
		}).
		Create(user).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	var stored models.User
	err = r.db.WithContext(ctx).Where("id = ?", user.ID).First(&stored).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &stored, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "UserRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("user_id", id)

	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &user, nil
}

// GetUserStats aggregates counts and the quota sum on read; nothing is cached.
func (r *userRepository) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "UserRepository.GetUserStats")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	stats := models.UserStats{}

	err := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Where("user_id = ?", userID).
		Count(&stats.DomainCount).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Model(&models.Mailbox{}).
		Where("user_id = ?", userID).
		Count(&stats.MailboxCount).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Model(&models.Alias{}).
		Where("user_id = ?", userID).
		Count(&stats.AliasCount).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Model(&models.Mailbox{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quota), 0)").
		Scan(&stats.TotalStorageUsed).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &stats, nil
}
