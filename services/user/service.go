package user

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/byteshifted/mailpanel/interfaces"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/models"
	"github.com/byteshifted/mailpanel/internal/repository"
	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/internal/utils"
)

type userService struct {
	log      logger.Logger
	postgres *repository.Repositories
}

func NewUserService(log logger.Logger, postgres *repository.Repositories) interfaces.UserService {
	return &userService{
		log:      log,
		postgres: postgres,
	}
}

func (s *userService) UpsertCurrentUser(ctx context.Context) (*models.User, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "UserService.UpsertCurrentUser")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	identity := utils.GetContext(ctx)
	user := &models.User{
		ID:              identity.UserId,
		Email:           identity.UserEmail,
		FirstName:       identity.FirstName,
		LastName:        identity.LastName,
		ProfileImageURL: identity.ProfileImageUrl,
		PlanType:        "basic",
		MaxDomains:      1,
	}

	return s.postgres.UserRepository.Upsert(ctx, user)
}

func (s *userService) GetUserStats(ctx context.Context) (*models.UserStats, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "UserService.GetUserStats")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := utils.ValidateUserId(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return s.postgres.UserRepository.GetUserStats(ctx, utils.GetUserIdFromContext(ctx))
}
