package domain

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/byteshifted/mailpanel/interfaces"
	er "github.com/byteshifted/mailpanel/internal/errors"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/models"
	"github.com/byteshifted/mailpanel/internal/repository"
	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/internal/utils"
)

// defaultMaxDomains matches the users.max_domains schema default and covers
// callers whose user row has not been upserted yet.
const defaultMaxDomains = 1

type domainService struct {
	log      logger.Logger
	postgres *repository.Repositories
	mailcow  interfaces.MailcowService
}

func NewDomainService(log logger.Logger, postgres *repository.Repositories, mailcow interfaces.MailcowService) interfaces.DomainService {
	return &domainService{
		log:      log,
		postgres: postgres,
		mailcow:  mailcow,
	}
}

func (s *domainService) ListDomains(ctx context.Context) ([]models.DomainWithCounts, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.ListDomains")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return s.postgres.DomainRepository.ListByUser(ctx, utils.GetUserIdFromContext(ctx))
}

// CreateDomain provisions the domain in mailcow first; the local record is
// only written once the external create has succeeded.
func (s *domainService) CreateDomain(ctx context.Context, input interfaces.DomainCreateInput) (*models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.CreateDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", input.Name)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	userID := utils.GetUserIdFromContext(ctx)

	name, err := utils.NormalizeDomainName(input.Name)
	if err != nil || name == "" {
		tracing.TraceErr(span, er.ErrInvalidDomainName)
		return nil, er.ErrInvalidDomainName
	}

	user, err := s.postgres.UserRepository.GetByID(ctx, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	// A user row only exists after the first identity upsert; a missing row
	// gets the plan default, not an unlimited allowance.
	maxDomains := defaultMaxDomains
	if user != nil {
		maxDomains = user.MaxDomains
	}
	count, err := s.postgres.DomainRepository.CountByUser(ctx, userID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if count >= int64(maxDomains) {
		tracing.TraceErr(span, er.ErrDomainLimitReached)
		return nil, er.ErrDomainLimitReached
	}

	existing, err := s.postgres.DomainRepository.GetByName(ctx, name)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if existing != nil {
		tracing.TraceErr(span, er.ErrDomainExists)
		return nil, er.ErrDomainExists
	}

	externalID, err := s.mailcow.CreateDomain(ctx, name)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	provisionID := s.recordProvision(ctx, "domain", externalID, userID)

	domain := &models.Domain{
		Name:            name,
		UserID:          userID,
		MailcowDomainID: &externalID,
		IsActive:        utils.GetOrDefault(input.IsActive, true),
	}
	created, err := s.postgres.DomainRepository.Create(ctx, domain)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("Domain %s created in mailcow but local write failed: %v", name, err)
		return nil, err
	}

	s.commitProvision(ctx, provisionID)

	return created, nil
}

// DeleteDomain removes the domain from mailcow first; if that call fails the
// local record (and its mailboxes and aliases) stays untouched.
func (s *domainService) DeleteDomain(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainService.DeleteDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	domain, err := s.postgres.DomainRepository.GetUserDomain(ctx, utils.GetUserIdFromContext(ctx), id)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if domain == nil {
		tracing.TraceErr(span, er.ErrDomainNotFound)
		return er.ErrDomainNotFound
	}

	if domain.MailcowDomainID != nil {
		if err := s.mailcow.DeleteDomain(ctx, *domain.MailcowDomainID); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
	}

	deleted, err := s.postgres.DomainRepository.DeleteCascade(ctx, domain.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if !deleted {
		tracing.TraceErr(span, er.ErrDomainNotFound)
		return er.ErrDomainNotFound
	}

	return nil
}

// recordProvision is advisory: a log failure must not abort the create.
func (s *domainService) recordProvision(ctx context.Context, kind, externalID, userID string) string {
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

func (s *domainService) commitProvision(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.postgres.ProvisionLogRepository.MarkCommitted(ctx, id); err != nil {
		s.log.Warnf("Failed to commit provision log %s: %v", id, err)
	}
}
