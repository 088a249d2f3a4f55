package models

import (
	"time"
)

// User identities come from the authentication gateway; the id is the
// gateway's stable subject id, never generated locally.
type User struct {
	ID              string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Email           string    `gorm:"column:email;type:varchar(255);uniqueIndex" json:"email"`
	FirstName       string    `gorm:"column:first_name;type:varchar(255)" json:"firstName"`
	LastName        string    `gorm:"column:last_name;type:varchar(255)" json:"lastName"`
	ProfileImageURL string    `gorm:"column:profile_image_url;type:varchar(1024)" json:"profileImageUrl"`
	PlanType        string    `gorm:"column:plan_type;type:varchar(50);not null;default:basic" json:"planType"`
	MaxDomains      int       `gorm:"column:max_domains;not null;default:1" json:"maxDomains"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

type UserStats struct {
	DomainCount      int64 `json:"domainCount"`
	MailboxCount     int64 `json:"mailboxCount"`
	AliasCount       int64 `json:"aliasCount"`
	TotalStorageUsed int64 `json:"totalStorageUsed"`
}
