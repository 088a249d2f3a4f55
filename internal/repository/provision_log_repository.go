package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/byteshifted/mailpanel/internal/models"
	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/internal/utils"
)

type ProvisionLogRepository interface {
	Create(ctx context.Context, entry *models.ProvisionLog) (string, error)
	MarkCommitted(ctx context.Context, id string) error
	ListUncommittedOlderThan(ctx context.Context, cutoff time.Time) ([]*models.ProvisionLog, error)
	Delete(ctx context.Context, id string) error
}

type provisionLogRepository struct {
	db *gorm.DB
}

func NewProvisionLogRepository(db *gorm.DB) ProvisionLogRepository {
	return &provisionLogRepository{
		db: db,
	}
}

func (r *provisionLogRepository) Create(ctx context.Context, entry *models.ProvisionLog) (string, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ProvisionLogRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if entry == nil {
		err := errors.New("provision log entry cannot be nil")
		tracing.TraceErr(span, err)
		return "", err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = utils.Now()
	}

	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return "", err
	}

	return entry.ID, nil
}

func (r *provisionLogRepository) MarkCommitted(ctx context.Context, id string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "ProvisionLogRepository.MarkCommitted")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("provision_id", id)

	err := r.db.WithContext(ctx).
		Model(&models.ProvisionLog{}).
		Where("id = ?", id).
		UpdateColumn("committed", true).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}

	return nil
}

// ListUncommittedOlderThan returns entries whose local write never completed.
// Each one points at a mailcow entity with no local record.
func (r *provisionLogRepository) ListUncommittedOlderThan(ctx context.Context, cutoff time.Time) ([]*models.ProvisionLog, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ProvisionLogRepository.ListUncommittedOlderThan")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("cutoff", cutoff.Format(time.RFC3339))

	var entries []*models.ProvisionLog
	err := r.db.WithContext(ctx).
		Where("committed = ? AND created_at < ?", false, cutoff).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return entries, nil
}

func (r *provisionLogRepository) Delete(ctx context.Context, id string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "ProvisionLogRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("provision_id", id)

	err := r.db.WithContext(ctx).Delete(&models.ProvisionLog{}, "id = ?", id).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}

	return nil
}
