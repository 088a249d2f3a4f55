package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/byteshifted/mailpanel/interfaces"
	er "github.com/byteshifted/mailpanel/internal/errors"
	"github.com/byteshifted/mailpanel/internal/tracing"
	"github.com/byteshifted/mailpanel/services"
)

type MailboxesHandler struct {
	svc *services.Services
}

func NewMailboxesHandler(s *services.Services) *MailboxesHandler {
	return &MailboxesHandler{
		svc: s,
	}
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *MailboxesHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "MailboxesHandler.List")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		mailboxes, err := h.svc.MailboxService.ListMailboxes(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch mailboxes"})
			return
		}

		c.JSON(http.StatusOK, mailboxes)
	}
}

func (h *MailboxesHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "MailboxesHandler.Create")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req interfaces.MailboxCreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Email == "" {
			message := "Missing required field: email"
			tracing.TraceErr(span, errors.New(message))
			c.JSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}
		if req.DomainID == "" {
			message := "Missing required field: domainId"
			tracing.TraceErr(span, errors.New(message))
			c.JSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}

		mailbox, err := h.svc.MailboxService.CreateMailbox(ctx, req)
		if err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, er.ErrPasswordTooShort):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
			case errors.Is(err, er.ErrInvalidEmailAddress):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
			case errors.Is(err, er.ErrDomainNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusCreated, mailbox)
	}
}

func (h *MailboxesHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "MailboxesHandler.Update")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req interfaces.MailboxUpdateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// A blank password in the form means "leave it unchanged".
		if req.Password != nil && *req.Password == "" {
			req.Password = nil
		}

		mailbox, err := h.svc.MailboxService.UpdateMailbox(ctx, c.Param("id"), req)
		if err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, er.ErrPasswordTooShort):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
			case errors.Is(err, er.ErrMailboxNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Mailbox not found"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, mailbox)
	}
}

func (h *MailboxesHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "MailboxesHandler.Delete")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		err := h.svc.MailboxService.DeleteMailbox(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, er.ErrMailboxNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Mailbox not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Mailbox deleted successfully"})
	}
}

func (h *MailboxesHandler) ResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "MailboxesHandler.ResetPassword")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req resetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err := h.svc.MailboxService.ResetPassword(ctx, c.Param("id"), req.Password)
		if err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, er.ErrPasswordTooShort):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
			case errors.Is(err, er.ErrMailboxNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Mailbox not found"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
	}
}

func (h *MailboxesHandler) Usage() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "MailboxesHandler.Usage")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		usage, err := h.svc.MailboxService.GetMailboxUsage(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, er.ErrMailboxNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Mailbox not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, usage)
	}
}
