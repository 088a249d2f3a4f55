package handlers

import "github.com/byteshifted/mailpanel/services"

type APIHandlers struct {
	Domains   *DomainsHandler
	Mailboxes *MailboxesHandler
	Aliases   *AliasesHandler
	Users     *UsersHandler
}

func InitHandlers(s *services.Services) *APIHandlers {
	return &APIHandlers{
		Domains:   NewDomainsHandler(s),
		Mailboxes: NewMailboxesHandler(s),
		Aliases:   NewAliasesHandler(s),
		Users:     NewUsersHandler(s),
	}
}
