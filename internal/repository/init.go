package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/byteshifted/mailpanel/config"
	"github.com/byteshifted/mailpanel/internal/models"
)

type Repositories struct {
	UserRepository         UserRepository
	DomainRepository       DomainRepository
	MailboxRepository      MailboxRepository
	AliasRepository        AliasRepository
	ProvisionLogRepository ProvisionLogRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		DomainRepository:       NewDomainRepository(db),
		MailboxRepository:      NewMailboxRepository(db),
		AliasRepository:        NewAliasRepository(db),
		ProvisionLogRepository: NewProvisionLogRepository(db),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	err = db.AutoMigrate(
		&models.User{},
		&models.Domain{},
		&models.Mailbox{},
		&models.Alias{},
		&models.ProvisionLog{},
	)

	sqlDB.Close()

	sqlDB, _ = db.DB()
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
