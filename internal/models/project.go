package models

import "time"

// Project groups pages under a unique slug. HomePage, when set, names a page of this project.
type Project struct {
	ID          string    `gorm:"primaryKey;size:32" json:"_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"size:1024" json:"description,omitempty"`
	Slug        string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	HomePage    string    `gorm:"column:home_page;size:32" json:"homePage,omitempty"`
	SpaceID     string    `gorm:"column:space_id;size:32;index" json:"space,omitempty"`
	Owner       string    `gorm:"size:64;not null;index" json:"owner"`
	Created     time.Time `gorm:"not null" json:"created"`
	CreatedBy   string    `gorm:"column:created_by;size:64" json:"created_by,omitempty"`
	Modified    time.Time `gorm:"not null;index" json:"modified"`
	ModifiedBy  string    `gorm:"column:modified_by;size:64" json:"modified_by,omitempty"`
}

// TableName overrides the table name for Project
func (Project) TableName() string {
	return "projects"
}
