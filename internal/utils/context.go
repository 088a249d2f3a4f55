package utils

import (
	"context"

	"github.com/gin-gonic/gin"

	er "github.com/byteshifted/mailpanel/internal/errors"
)

type CustomContext struct {
	UserId          string
	UserEmail       string
	FirstName       string
	LastName        string
	ProfileImageUrl string
}

var customContextKey = "CUSTOM_CONTEXT"

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context) context.Context {
	customContext := &CustomContext{
		UserId:          c.GetString("UserId"),
		UserEmail:       c.GetString("UserEmail"),
		FirstName:       c.GetString("UserFirstName"),
		LastName:        c.GetString("UserLastName"),
		ProfileImageUrl: c.GetString("UserProfileImageUrl"),
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetUserIdFromContext(ctx context.Context) string {
	return GetContext(ctx).UserId
}

func GetUserEmailFromContext(ctx context.Context) string {
	return GetContext(ctx).UserEmail
}

func ValidateUserId(ctx context.Context) error {
	if GetUserIdFromContext(ctx) == "" {
		return er.ErrUserIdMissing
	}
	return nil
}
