package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/byteshifted/mailpanel/internal/utils"
)

// ProvisionLog records an external create before the local row is written.
// An entry that never gets committed marks an orphaned mailcow entity with
// no local record pointing at it; a cron sweep reports those.
type ProvisionLog struct {
	ID           string    `gorm:"column:id;type:varchar(50);primaryKey"`
	ResourceKind string    `gorm:"column:resource_kind;type:varchar(20);not null"`
	ExternalID   string    `gorm:"column:external_id;type:varchar(255);not null"`
	UserID       string    `gorm:"column:user_id;type:varchar(50);index"`
	Committed    bool      `gorm:"column:committed;not null;default:false;index"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (ProvisionLog) TableName() string {
	return "provision_logs"
}

func (p *ProvisionLog) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = utils.GenerateNanoIDWithPrefix("prov", 12)
	}
	return nil
}
