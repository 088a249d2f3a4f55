package mailbox

import (
	"context"
	"fmt"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/byteshifted/mailpanel/interfaces"
	er "github.com/byteshifted/mailpanel/internal/errors"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/models"
	"github.com/byteshifted/mailpanel/internal/repository"
	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/internal/utils"
)

const (
	minPasswordLength = 8
	defaultQuotaMB    = 1024
)

type mailboxService struct {
	log      logger.Logger
	postgres *repository.Repositories
	mailcow  interfaces.MailcowService
}

func NewMailboxService(log logger.Logger, postgres *repository.Repositories, mailcow interfaces.MailcowService) interfaces.MailboxService {
	return &mailboxService{
		log:      log,
		postgres: postgres,
		mailcow:  mailcow,
	}
}

func (s *mailboxService) ListMailboxes(ctx context.Context) ([]models.Mailbox, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.ListMailboxes")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return s.postgres.MailboxRepository.ListByUser(ctx, utils.GetUserIdFromContext(ctx))
}

// CreateMailbox verifies domain ownership before any external call, then
// creates the mailbox in mailcow and only persists locally on success. The
// address is recomposed from the client's local part and the owning domain's
// actual name; a domain suffix in the client input is discarded.
func (s *mailboxService) CreateMailbox(ctx context.Context, input interfaces.MailboxCreateInput) (*models.Mailbox, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.CreateMailbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	userID := utils.GetUserIdFromContext(ctx)

	if len(input.Password) < minPasswordLength {
		tracing.TraceErr(span, er.ErrPasswordTooShort)
		return nil, er.ErrPasswordTooShort
	}

	domain, err := s.postgres.DomainRepository.GetUserDomain(ctx, userID, input.DomainID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if domain == nil {
		tracing.TraceErr(span, er.ErrDomainNotFound)
		return nil, er.ErrDomainNotFound
	}

	localPart := utils.LocalPart(input.Email)
	address := fmt.Sprintf("%s@%s", localPart, domain.Name)
	validation := mailvalidate.ValidateEmailSyntax(address)
	if localPart == "" || !validation.IsValid {
		tracing.TraceErr(span, er.ErrInvalidEmailAddress)
		return nil, er.ErrInvalidEmailAddress
	}
	span.LogKV("email", address)

	quota := utils.GetOrDefault(input.Quota, defaultQuotaMB)

	externalID, err := s.mailcow.CreateMailbox(ctx, localPart, domain.Name, input.Password, quota, input.FullName)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	provisionID := s.recordProvision(ctx, "mailbox", externalID, userID)

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	mailbox := &models.Mailbox{
		Email:            address,
		DomainID:         domain.ID,
		UserID:           userID,
		FullName:         input.FullName,
		Quota:            quota,
		MailcowMailboxID: &externalID,
		PasswordHash:     string(hash),
		IsActive:         utils.GetOrDefault(input.IsActive, true),
	}
	created, err := s.postgres.MailboxRepository.Create(ctx, mailbox)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("Mailbox %s created in mailcow but local write failed: %v", address, err)
		return nil, err
	}

	s.commitProvision(ctx, provisionID)

	created.Domain = domain
	return created, nil
}

// UpdateMailbox pushes the partial patch to mailcow before touching the local
// row; only fields present in the input are sent upstream. A record without
// an external identifier is updated locally only.
func (s *mailboxService) UpdateMailbox(ctx context.Context, id string, input interfaces.MailboxUpdateInput) (*models.Mailbox, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.UpdateMailbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if input.Password != nil && len(*input.Password) < minPasswordLength {
		tracing.TraceErr(span, er.ErrPasswordTooShort)
		return nil, er.ErrPasswordTooShort
	}

	mailbox, err := s.postgres.MailboxRepository.GetUserMailbox(ctx, utils.GetUserIdFromContext(ctx), id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if mailbox == nil {
		tracing.TraceErr(span, er.ErrMailboxNotFound)
		return nil, er.ErrMailboxNotFound
	}

	patch := &interfaces.MailcowMailboxPatch{
		Name:     input.FullName,
		Quota:    input.Quota,
		Active:   input.IsActive,
		Password: input.Password,
	}
	if mailbox.MailcowMailboxID != nil && !patch.IsEmpty() {
		if err := s.mailcow.UpdateMailbox(ctx, *mailbox.MailcowMailboxID, patch); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	update := repository.MailboxUpdate{
		FullName: input.FullName,
		Quota:    input.Quota,
		IsActive: input.IsActive,
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		update.PasswordHash = utils.Ptr(string(hash))
	}

	updated, err := s.postgres.MailboxRepository.Update(ctx, mailbox.ID, update)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return updated, nil
}

func (s *mailboxService) DeleteMailbox(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.DeleteMailbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	mailbox, err := s.postgres.MailboxRepository.GetUserMailbox(ctx, utils.GetUserIdFromContext(ctx), id)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if mailbox == nil {
		tracing.TraceErr(span, er.ErrMailboxNotFound)
		return er.ErrMailboxNotFound
	}

	if mailbox.MailcowMailboxID != nil {
		if err := s.mailcow.DeleteMailbox(ctx, *mailbox.MailcowMailboxID); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
	}

	deleted, err := s.postgres.MailboxRepository.Delete(ctx, mailbox.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if !deleted {
		tracing.TraceErr(span, er.ErrMailboxNotFound)
		return er.ErrMailboxNotFound
	}

	return nil
}

func (s *mailboxService) ResetPassword(ctx context.Context, id, password string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.ResetPassword")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	if len(password) < minPasswordLength {
		tracing.TraceErr(span, er.ErrPasswordTooShort)
		return er.ErrPasswordTooShort
	}

	mailbox, err := s.postgres.MailboxRepository.GetUserMailbox(ctx, utils.GetUserIdFromContext(ctx), id)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if mailbox == nil {
		tracing.TraceErr(span, er.ErrMailboxNotFound)
		return er.ErrMailboxNotFound
	}

	if mailbox.MailcowMailboxID != nil {
		patch := &interfaces.MailcowMailboxPatch{Password: utils.Ptr(password)}
		if err := s.mailcow.UpdateMailbox(ctx, *mailbox.MailcowMailboxID, patch); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	_, err = s.postgres.MailboxRepository.Update(ctx, mailbox.ID, repository.MailboxUpdate{
		PasswordHash: utils.Ptr(string(hash)),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (s *mailboxService) GetMailboxUsage(ctx context.Context, id string) (*interfaces.MailboxUsage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailboxService.GetMailboxUsage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	mailbox, err := s.postgres.MailboxRepository.GetUserMailbox(ctx, utils.GetUserIdFromContext(ctx), id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if mailbox == nil {
		tracing.TraceErr(span, er.ErrMailboxNotFound)
		return nil, er.ErrMailboxNotFound
	}

	usage := s.mailcow.GetMailboxUsage(ctx, mailbox.Email)
	return &usage, nil
}

func (s *mailboxService) recordProvision(ctx context.Context, kind, externalID, userID string) string {
	id, err := s.postgres.ProvisionLogRepository.Create(ctx, &models.ProvisionLog{
		ResourceKind: kind,
		ExternalID:   externalID,
		UserID:       userID,
	})
	if err != nil {
		s.log.Warnf("Failed to record provision log for %s %s: %v", kind, externalID, err)
		return ""
	}
	return id
}

func (s *mailboxService) commitProvision(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.postgres.ProvisionLogRepository.MarkCommitted(ctx, id); err != nil {
		s.log.Warnf("Failed to commit provision log %s: %v", id, err)
	}
}
