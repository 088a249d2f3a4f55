package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/services"
)

type UsersHandler struct {
	svc *services.Services
}

func NewUsersHandler(s *services.Services) *UsersHandler {
	return &UsersHandler{
		svc: s,
	}
}

// CurrentUser upserts the user record from the verified identity headers
// and returns it. The first login creates the record.
func (h *UsersHandler) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "UsersHandler.CurrentUser")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		user, err := h.svc.UserService.UpsertCurrentUser(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

func (h *UsersHandler) Stats() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "UsersHandler.Stats")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		stats, err := h.svc.UserService.GetUserStats(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}
