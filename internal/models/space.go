package models

import "time"

// Space is an organization workspace. Every user gets a personal one.
type Space struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Slug      string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Logo      string    `gorm:"size:1024" json:"logo,omitempty"`
	Metadata  JSON      `json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SpaceUser is a user's membership in a space
type SpaceUser struct {
	ID             string    `gorm:"primaryKey;size:32" json:"id"`
	OrganizationID string    `gorm:"column:organization_id;size:32;not null;index:idx_space_users_member,unique" json:"organizationId"`
	UserID         string    `gorm:"column:user_id;size:64;not null;index:idx_space_users_member,unique;index" json:"userId"`
	Role           string    `gorm:"size:32;not null" json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName overrides the table name for Space
func (Space) TableName() string {
	return "spaces"
}

// TableName overrides the table name for SpaceUser
func (SpaceUser) TableName() string {
	return "space_users"
}
