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

type AliasesHandler struct {
	svc *services.Services
}

func NewAliasesHandler(s *services.Services) *AliasesHandler {
	return &AliasesHandler{
		svc: s,
	}
}

func (h *AliasesHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "AliasesHandler.List")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		aliases, err := h.svc.AliasService.ListAliases(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch aliases"})
			return
		}

		c.JSON(http.StatusOK, aliases)
	}
}

func (h *AliasesHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "AliasesHandler.Create")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req interfaces.AliasCreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if req.Address == "" {
			message := "Missing required field: address"
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
		if req.Destination == "" {
			message := "Missing required field: destination"
			tracing.TraceErr(span, errors.New(message))
			c.JSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}

		alias, err := h.svc.AliasService.CreateAlias(ctx, req)
		if err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, er.ErrInvalidDestination):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination address"})
			case errors.Is(err, er.ErrInvalidEmailAddress):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alias address"})
			case errors.Is(err, er.ErrDomainNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusCreated, alias)
	}
}

func (h *AliasesHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "AliasesHandler.Update")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req interfaces.AliasUpdateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		alias, err := h.svc.AliasService.UpdateAlias(ctx, c.Param("id"), req)
		if err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, er.ErrInvalidDestination):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination address"})
			case errors.Is(err, er.ErrAliasNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Alias not found"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, alias)
	}
}

func (h *AliasesHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "AliasesHandler.Delete")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		err := h.svc.AliasService.DeleteAlias(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			if errors.Is(err, er.ErrAliasNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Alias not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Alias deleted successfully"})
	}
}
