package interfaces

import (
	"context"

	"github.com/byteshifted/mailpanel/internal/models"
)

type MailboxCreateInput struct {
	// Email is client input; only the local part is kept, the owning
	// domain's name supplies the suffix.
	Email    string `json:"email"`
	DomainID string `json:"domainId"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
	Quota    *int   `json:"quota"`
	IsActive *bool  `json:"isActive"`
}

type MailboxUpdateInput struct {
	FullName *string `json:"fullName"`
	Password *string `json:"password"`
	Quota    *int    `json:"quota"`
	IsActive *bool   `json:"isActive"`
}

type MailboxService interface {
	ListMailboxes(ctx context.Context) ([]models.Mailbox, error)
	CreateMailbox(ctx context.Context, input MailboxCreateInput) (*models.Mailbox, error)
	UpdateMailbox(ctx context.Context, id string, input MailboxUpdateInput) (*models.Mailbox, error)
	DeleteMailbox(ctx context.Context, id string) error
	ResetPassword(ctx context.Context, id, password string) error
	GetMailboxUsage(ctx context.Context, id string) (*MailboxUsage, error)
}
