package services

import (
	"github.com/byteshifted/mailpanel/config"
	"github.com/byteshifted/mailpanel/interfaces"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/repository"
	"github.com/byteshifted/mailpanel/services/alias"
	"github.com/byteshifted/mailpanel/services/domain"
	"github.com/byteshifted/mailpanel/services/mailbox"
	"github.com/byteshifted/mailpanel/services/mailcow"
	"github.com/byteshifted/mailpanel/services/user"
)

type Services struct {
	MailcowService interfaces.MailcowService
	DomainService  interfaces.DomainService
	MailboxService interfaces.MailboxService
	AliasService   interfaces.AliasService
	UserService    interfaces.UserService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) *Services {
	mailcowService := mailcow.NewMailcowService(log, cfg.MailcowConfig)

	return &Services{
		MailcowService: mailcowService,
		DomainService:  domain.NewDomainService(log, repos, mailcowService),
		MailboxService: mailbox.NewMailboxService(log, repos, mailcowService),
		AliasService:   alias.NewAliasService(log, repos, mailcowService),
		UserService:    user.NewUserService(log, repos),
	}
}
