package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Markup is opaque HTML/Tailwind text. Pages can be far larger than a MySQL TEXT column.
type Markup string

// GormDBDataType picks a large text column per driver.
func (Markup) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "LONGTEXT"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	}
	return "TEXT"
}

// String returns the markup text
func (m Markup) String() string {
	return string(m)
}
