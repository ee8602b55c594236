package main

import (
	"fmt"
	"log"

	"github.com/localnerve/pagesdb/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Prints the tables and indexes AutoMigrate creates, using SQLite
func main() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	var objects []struct {
		Type string
		Name string
		SQL  string
	}
	db.Raw("SELECT type, name, sql FROM sqlite_master WHERE type IN ('table', 'index') AND sql IS NOT NULL ORDER BY tbl_name, type DESC").Scan(&objects)

	for _, o := range objects {
		fmt.Printf("\n=== %s: %s ===\n%s\n", o.Type, o.Name, o.SQL)
	}
}
