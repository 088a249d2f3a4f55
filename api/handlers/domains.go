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

type DomainsHandler struct {
	svc *services.Services
}

func NewDomainsHandler(s *services.Services) *DomainsHandler {
	return &DomainsHandler{
		svc: s,
	}
}

func (h *DomainsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.List")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		domains, err := h.svc.DomainService.ListDomains(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch domains"})
			return
		}

		c.JSON(http.StatusOK, domains)
	}
}

func (h *DomainsHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.Create")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req interfaces.DomainCreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Name == "" {
			message := "Missing required field: name"
			tracing.TraceErr(span, errors.New(message))
			c.JSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}

		domain, err := h.svc.DomainService.CreateDomain(ctx, req)
		if err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, er.ErrInvalidDomainName):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain name"})
			case errors.Is(err, er.ErrDomainExists):
				c.JSON(http.StatusConflict, gin.H{"error": "Domain already exists"})
			case errors.Is(err, er.ErrDomainLimitReached):
				c.JSON(http.StatusForbidden, gin.H{"error": "Domain limit reached for your plan"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusCreated, domain)
	}
}

func (h *DomainsHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DomainsHandler.Delete")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		err := h.svc.DomainService.DeleteDomain(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, er.ErrDomainNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Domain deleted successfully"})
	}
}
