package interfaces

import (
	"context"

	"github.com/byteshifted/mailpanel/internal/models"
)

type DomainCreateInput struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"isActive"`
}

type DomainService interface {
	ListDomains(ctx context.Context) ([]models.DomainWithCounts, error)
	CreateDomain(ctx context.Context, input DomainCreateInput) (*models.Domain, error)
	DeleteDomain(ctx context.Context, id string) error
}
