package interfaces

import (
	"context"

	"github.com/byteshifted/mailpanel/internal/models"
)

type AliasCreateInput struct {
	// Address is client input; only the local part is kept, the owning
	// domain's name supplies the suffix.
	Address     string `json:"address"`
	DomainID    string `json:"domainId"`
	Destination string `json:"destination"`
	IsActive    *bool  `json:"isActive"`
}

type AliasUpdateInput struct {
	Destination *string `json:"destination"`
	IsActive    *bool   `json:"isActive"`
}

type AliasService interface {
	ListAliases(ctx context.Context) ([]models.Alias, error)
	CreateAlias(ctx context.Context, input AliasCreateInput) (*models.Alias, error)
	UpdateAlias(ctx context.Context, id string, input AliasUpdateInput) (*models.Alias, error)
	DeleteAlias(ctx context.Context, id string) error
}
