package interfaces

import "context"

// MailcowMailboxPatch is a partial attribute set for /edit/mailbox.
// Nil fields are omitted from the payload entirely.
type MailcowMailboxPatch struct {
	Name     *string `json:"name,omitempty"`
	Quota    *int    `json:"quota,omitempty"`
	Active   *bool   `json:"active,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (p *MailcowMailboxPatch) IsEmpty() bool {
	return p == nil || (p.Name == nil && p.Quota == nil && p.Active == nil && p.Password == nil)
}

// MailcowAliasPatch is a partial attribute set for /edit/alias.
type MailcowAliasPatch struct {
	Goto   *string `json:"goto,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

func (p *MailcowAliasPatch) IsEmpty() bool {
	return p == nil || (p.Goto == nil && p.Active == nil)
}

type MailboxUsage struct {
	Used  int64 `json:"used"`
	Quota int64 `json:"quota"`
}

// MailcowService wraps the mailcow admin API. Mailboxes and aliases have no
// separate numeric id upstream; the canonical address string is the external
// identifier, the domain name for domains.
type MailcowService interface {
	CreateDomain(ctx context.Context, name string) (string, error)
	DeleteDomain(ctx context.Context, name string) error

	CreateMailbox(ctx context.Context, localPart, domain, password string, quota int, displayName string) (string, error)
	UpdateMailbox(ctx context.Context, email string, patch *MailcowMailboxPatch) error
	DeleteMailbox(ctx context.Context, email string) error

	CreateAlias(ctx context.Context, address, destination string) (string, error)
	UpdateAlias(ctx context.Context, address string, patch *MailcowAliasPatch) error
	DeleteAlias(ctx context.Context, address string) error

	// GetMailboxUsage never returns an error; upstream failures degrade to a
	// zero-usage value because quota monitoring is advisory.
	GetMailboxUsage(ctx context.Context, email string) MailboxUsage
}
