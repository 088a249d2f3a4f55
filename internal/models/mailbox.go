package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/byteshifted/mailpanel/internal/utils"
)

type Mailbox struct {
	ID               string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Email            string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	DomainID         string    `gorm:"column:domain_id;type:varchar(50);index;not null" json:"domainId"`
	UserID           string    `gorm:"column:user_id;type:varchar(50);index;not null" json:"userId"`
	FullName         string    `gorm:"column:full_name;type:varchar(255)" json:"fullName"`
	Quota            int       `gorm:"column:quota;not null;default:1024" json:"quota"`
	MailcowMailboxID *string   `gorm:"column:mailcow_mailbox_id;type:varchar(255)" json:"mailcowMailboxId"`
	PasswordHash     string    `gorm:"column:password_hash;type:varchar(255)" json:"-"`
	IsActive         bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`

	Domain *Domain `gorm:"foreignKey:DomainID" json:"domain,omitempty"`
}

func (Mailbox) TableName() string {
	return "mailboxes"
}

func (m *Mailbox) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("mbox", 16)
	}
	return nil
}
