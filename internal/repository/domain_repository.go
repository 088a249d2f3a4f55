package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/byteshifted/mailpanel/internal/models"
	"github.com/byteshifted/mailpanel/internal/tracing"
)

type DomainRepository interface {
	Create(ctx context.Context, domain *models.Domain) (*models.Domain, error)
	GetUserDomain(ctx context.Context, userID, id string) (*models.Domain, error)
	GetByName(ctx context.Context, name string) (*models.Domain, error)
	ListByUser(ctx context.Context, userID string) ([]models.DomainWithCounts, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	DeleteCascade(ctx context.Context, id string) (bool, error)
}

type domainRepository struct {
	db *gorm.DB
}

func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &domainRepository{
		db: db,
	}
}

func (r *domainRepository) Create(ctx context.Context, domain *models.Domain) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain", domain.Name)

	err := r.db.WithContext(ctx).Create(domain).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return domain, nil
}

// GetUserDomain returns nil for both a missing domain and a domain owned by
// another user, so callers cannot tell the two apart.
func (r *domainRepository) GetUserDomain(ctx context.Context, userID, id string) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetUserDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain_id", id)

	var domain models.Domain
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &domain, nil
}

func (r *domainRepository) GetByName(ctx context.Context, name string) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetByName")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain", name)

	var domain models.Domain
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &domain, nil
}

func (r *domainRepository) ListByUser(ctx context.Context, userID string) ([]models.DomainWithCounts, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.ListByUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var domains []models.Domain
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&domains).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	type domainCount struct {
		DomainID string
		Count    int64
	}

	mailboxCounts := make(map[string]int64)
	var rows []domainCount
	err = r.db.WithContext(ctx).
		Model(&models.Mailbox{}).
		Select("domain_id, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("domain_id").
		Scan(&rows).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}
	for _, row := range rows {
		mailboxCounts[row.DomainID] = row.Count
	}

	aliasCounts := make(map[string]int64)
	rows = rows[:0]
	err = r.db.WithContext(ctx).
		Model(&models.Alias{}).
		Select("domain_id, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("domain_id").
		Scan(&rows).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}
	for _, row := range rows {
		aliasCounts[row.DomainID] = row.Count
	}

	result := make([]models.DomainWithCounts, 0, len(domains))
	for _, domain := range domains {
		result = append(result, models.DomainWithCounts{
			Domain:       domain,
			MailboxCount: mailboxCounts[domain.ID],
			AliasCount:   aliasCounts[domain.ID],
		})
	}

	return result, nil
}

func (r *domainRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.CountByUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return 0, err
	}

	return count, nil
}

// DeleteCascade removes the domain together with every mailbox and alias
// under it, in a single transaction.
func (r *domainRepository) DeleteCascade(ctx context.Context, id string) (bool, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.DeleteCascade")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("domain_id", id)

	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("domain_id = ?", id).Delete(&models.Alias{}).Error; err != nil {
			return err
		}
		if err := tx.Where("domain_id = ?", id).Delete(&models.Mailbox{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Domain{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return false, err
	}

	return deleted, nil
}
