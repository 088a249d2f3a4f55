package alias

import (
	"context"
	"fmt"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"

	"github.com/byteshifted/mailpanel/interfaces"
	er "github.com/byteshifted/mailpanel/internal/errors"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/models"
	"github.com/byteshifted/mailpanel/internal/repository"
	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/internal/utils"
)

type aliasService struct {
	log      logger.Logger
	postgres *repository.Repositories
	mailcow  interfaces.MailcowService
}

func NewAliasService(log logger.Logger, postgres *repository.Repositories, mailcow interfaces.MailcowService) interfaces.AliasService {
	return &aliasService{
		log:      log,
		postgres: postgres,
		mailcow:  mailcow,
	}
}

func (s *aliasService) ListAliases(ctx context.Context) ([]models.Alias, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AliasService.ListAliases")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return s.postgres.AliasRepository.ListByUser(ctx, utils.GetUserIdFromContext(ctx))
}

// CreateAlias follows the same external-first ordering as mailboxes: verify
// domain ownership, create in mailcow, then persist. The alias address is
// recomposed from the local part and the owning domain's actual name.
func (s *aliasService) CreateAlias(ctx context.Context, input interfaces.AliasCreateInput) (*models.Alias, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AliasService.CreateAlias")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	userID := utils.GetUserIdFromContext(ctx)

	destination := mailvalidate.ValidateEmailSyntax(input.Destination)
	if !destination.IsValid {
		tracing.TraceErr(span, er.ErrInvalidDestination)
		return nil, er.ErrInvalidDestination
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

	localPart := utils.LocalPart(input.Address)
	address := fmt.Sprintf("%s@%s", localPart, domain.Name)
	validation := mailvalidate.ValidateEmailSyntax(address)
	if localPart == "" || !validation.IsValid {
		tracing.TraceErr(span, er.ErrInvalidEmailAddress)
		return nil, er.ErrInvalidEmailAddress
	}
	span.LogKV("address", address)

	externalID, err := s.mailcow.CreateAlias(ctx, address, input.Destination)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	provisionID := s.recordProvision(ctx, "alias", externalID, userID)

	alias := &models.Alias{
		Address:        address,
		Destination:    input.Destination,
		DomainID:       domain.ID,
		UserID:         userID,
		MailcowAliasID: &externalID,
		IsActive:       utils.GetOrDefault(input.IsActive, true),
	}
	created, err := s.postgres.AliasRepository.Create(ctx, alias)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("Alias %s created in mailcow but local write failed: %v", address, err)
		return nil, err
	}

	s.commitProvision(ctx, provisionID)

	created.Domain = domain
	return created, nil
}

func (s *aliasService) UpdateAlias(ctx context.Context, id string, input interfaces.AliasUpdateInput) (*models.Alias, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AliasService.UpdateAlias")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if input.Destination != nil {
		destination := mailvalidate.ValidateEmailSyntax(*input.Destination)
		if !destination.IsValid {
			tracing.TraceErr(span, er.ErrInvalidDestination)
			return nil, er.ErrInvalidDestination
		}
	}

	alias, err := s.postgres.AliasRepository.GetUserAlias(ctx, utils.GetUserIdFromContext(ctx), id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if alias == nil {
		tracing.TraceErr(span, er.ErrAliasNotFound)
		return nil, er.ErrAliasNotFound
	}

	patch := &interfaces.MailcowAliasPatch{
		Goto:   input.Destination,
		Active: input.IsActive,
	}
	if alias.MailcowAliasID != nil && !patch.IsEmpty() {
		if err := s.mailcow.UpdateAlias(ctx, *alias.MailcowAliasID, patch); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	updated, err := s.postgres.AliasRepository.Update(ctx, alias.ID, repository.AliasUpdate{
		Destination: input.Destination,
		IsActive:    input.IsActive,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return updated, nil
}

func (s *aliasService) DeleteAlias(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AliasService.DeleteAlias")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, id)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	alias, err := s.postgres.AliasRepository.GetUserAlias(ctx, utils.GetUserIdFromContext(ctx), id)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if alias == nil {
		tracing.TraceErr(span, er.ErrAliasNotFound)
		return er.ErrAliasNotFound
	}

	if alias.MailcowAliasID != nil {
		if err := s.mailcow.DeleteAlias(ctx, *alias.MailcowAliasID); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
	}

	deleted, err := s.postgres.AliasRepository.Delete(ctx, alias.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if !deleted {
		tracing.TraceErr(span, er.ErrAliasNotFound)
		return er.ErrAliasNotFound
	}

	return nil
}

func (s *aliasService) recordProvision(ctx context.Context, kind, externalID, userID string) string {
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

func (s *aliasService) commitProvision(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.postgres.ProvisionLogRepository.MarkCommitted(ctx, id); err != nil {
		s.log.Warnf("Failed to commit provision log %s: %v", id, err)
	}
}
