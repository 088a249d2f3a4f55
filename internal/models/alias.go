package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/byteshifted/mailpanel/internal/utils"
)

type Alias struct {
	ID             string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Address        string    `gorm:"column:address;type:varchar(255);uniqueIndex;not null" json:"address"`
	Destination    string    `gorm:"column:destination;type:varchar(255);not null" json:"destination"`
	DomainID       string    `gorm:"column:domain_id;type:varchar(50);index;not null" json:"domainId"`
	UserID         string    `gorm:"column:user_id;type:varchar(50);index;not null" json:"userId"`
	MailcowAliasID *string   `gorm:"column:mailcow_alias_id;type:varchar(255)" json:"mailcowAliasId"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`

	Domain *Domain `gorm:"foreignKey:DomainID" json:"domain,omitempty"`
}

func (Alias) TableName() string {
	return "aliases"
}

func (a *Alias) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("als", 16)
	}
	return nil
}
