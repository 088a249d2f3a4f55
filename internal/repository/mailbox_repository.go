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

// MailboxUpdate carries a partial update; nil fields are left unchanged.
type MailboxUpdate struct {
	FullName     *string
	Quota        *int
	IsActive     *bool
	PasswordHash *string
}

type MailboxRepository interface {
	Create(ctx context.Context, mailbox *models.Mailbox) (*models.Mailbox, error)
	GetUserMailbox(ctx context.Context, userID, id string) (*models.Mailbox, error)
	ListByUser(ctx context.Context, userID string) ([]models.Mailbox, error)
	Update(ctx context.Context, id string, update MailboxUpdate) (*models.Mailbox, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type mailboxRepository struct {
	db *gorm.DB
}

func NewMailboxRepository(db *gorm.DB) MailboxRepository {
	return &mailboxRepository{
		db: db,
	}
}

func (r *mailboxRepository) Create(ctx context.Context, mailbox *models.Mailbox) (*models.Mailbox, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "MailboxRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("email", mailbox.Email)

	err := r.db.WithContext(ctx).Create(mailbox).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return mailbox, nil
}

func (r *mailboxRepository) GetUserMailbox(ctx context.Context, userID, id string) (*models.Mailbox, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "MailboxRepository.GetUserMailbox")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("mailbox_id", id)

	var mailbox models.Mailbox
	err := r.db.WithContext(ctx).
		Preload("Domain").
		Where("id = ? AND user_id = ?", id, userID).
		First(&mailbox).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &mailbox, nil
}

func (r *mailboxRepository) ListByUser(ctx context.Context, userID string) ([]models.Mailbox, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "MailboxRepository.ListByUser")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var mailboxes []models.Mailbox
	err := r.db.WithContext(ctx).
		Preload("Domain").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&mailboxes).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return mailboxes, nil
}

func (r *mailboxRepository) Update(ctx context.Context, id string, update MailboxUpdate) (*models.Mailbox, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "MailboxRepository.Update")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("mailbox_id", id)

	columns := map[string]interface{}{
		"updated_at": utils.Now(),
	}
	if update.FullName != nil {
		columns["full_name"] = *update.FullName
	}
	if update.Quota != nil {
		columns["quota"] = *update.Quota
	}
	if update.IsActive != nil {
		columns["is_active"] = *update.IsActive
	}
	if update.PasswordHash != nil {
		columns["password_hash"] = *update.PasswordHash
	}

	err := r.db.WithContext(ctx).
		Model(&models.Mailbox{}).
		Where("id = ?", id).
		Updates(columns).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	var mailbox models.Mailbox
	err = r.db.WithContext(ctx).
		Preload("Domain").
		Where("id = ?", id).
		First(&mailbox).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &mailbox, nil
}

func (r *mailboxRepository) Delete(ctx context.Context, id string) (bool, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "MailboxRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("mailbox_id", id)

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Mailbox{})
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
