package models

import "time"

// Content is a page or a snippet. Both deployments share this shape and are
// stored in per-kind tables (see services.Kind).
type Content struct {
	ID              string    `gorm:"primaryKey;size:32" json:"_id"`
	ProjectID       string    `gorm:"column:project_id;size:32;index" json:"projectId,omitempty"`
	Name            string    `gorm:"size:255" json:"name"`
	Code            Markup    `json:"code"`
	MetaTitle       string    `gorm:"column:meta_title;size:255" json:"metaTitle,omitempty"`
	Slug            string    `gorm:"size:255" json:"slug,omitempty"`
	Path            string    `gorm:"size:255;index" json:"path,omitempty"`
	AddToNavigation bool      `gorm:"column:add_to_navigation;not null;default:false" json:"addToNavigation"`
	Owner           string    `gorm:"size:64;index" json:"owner,omitempty"`
	Created         time.Time `gorm:"not null" json:"created"`
	CreatedBy       string    `gorm:"column:created_by;size:64" json:"created_by,omitempty"`
	Modified        time.Time `gorm:"not null;index" json:"modified"`
	ModifiedBy      string    `gorm:"column:modified_by;size:64" json:"modified_by,omitempty"`
}

// Version is an immutable snapshot of a Content record's code, taken just
// before an owner's save overwrote it.
type Version struct {
	ID        string    `gorm:"primaryKey;size:32" json:"_id"`
	ContentID string    `gorm:"column:content_id;size:32;not null;index" json:"-"`
	Code      Markup    `json:"code"`
	VersionID string    `gorm:"column:version_id;size:4;not null" json:"versionId"`
	Owner     string    `gorm:"size:64" json:"owner,omitempty"`
	Created   time.Time `gorm:"not null;index" json:"created"`
	CreatedBy string    `gorm:"column:created_by;size:64" json:"created_by,omitempty"`
}
