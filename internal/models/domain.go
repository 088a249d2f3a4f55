package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/byteshifted/mailpanel/internal/utils"
)

type Domain struct {
	ID     string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Name   string `gorm:"column:name;type:varchar(255);uniqueIndex;not null" json:"name"`
	UserID string `gorm:"column:user_id;type:varchar(50);index;not null" json:"userId"`
	// MailcowDomainID is set once the mailcow create call has succeeded and
	// is the join key for all later external calls.
	MailcowDomainID *string   `gorm:"column:mailcow_domain_id;type:varchar(255)" json:"mailcowDomainId"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Domain) TableName() string {
	return "domains"
}

func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = utils.GenerateNanoIDWithPrefix("dom", 16)
	}
	return nil
}

type DomainWithCounts struct {
	Domain
	MailboxCount int64 `gorm:"-" json:"mailboxCount"`
	AliasCount   int64 `gorm:"-" json:"aliasCount"`
}
