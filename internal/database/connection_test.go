package database

import (
	"errors"
	"fmt"
	"testing"

	glebarez "github.com/glebarez/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/localnerve/pagesdb/internal/config"
	"github.com/localnerve/pagesdb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		dbType string
		want   string
	}{
		{"mysql", "mysql"},
		{"mariadb", "mysql"},
		{"postgres", "postgres"},
		{"sqlite", "sqlite"},
		{"sqlite3", "sqlite"},
		{"sqlserver", "sqlserver"},
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			cfg := &config.Config{DBType: tt.dbType, DBHost: "localhost", DBPort: "1234", DBDatabase: "pages", DBUser: "u", DBPassword: "p"}
			dialector, err := Dialector(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dialector.Name())
		})
	}

	_, err := Dialector(&config.Config{DBType: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, IsDuplicateKey(nil))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKey(fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsDuplicateKey(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsDuplicateKey(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, IsDuplicateKey(&mysqldriver.MySQLError{Number: 1452}))
	assert.True(t, IsDuplicateKey(errors.New("constraint failed: UNIQUE constraint failed: projects.slug (2067)")))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLogLevel("debug"))
	assert.Equal(t, logger.Error, gormLogLevel("error"))
	assert.Equal(t, logger.Warn, gormLogLevel("info"))
}

func TestAutoMigrate(t *testing.T) {
	db, err := gorm.Open(glebarez.Open("file:automigrate?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, AutoMigrate(db))
	// A second run is a no-op
	require.NoError(t, AutoMigrate(db))

	m := db.Migrator()
	for _, table := range []string{"projects", "spaces", "space_users", PagesTable, PageVersionsTable, SnippetsTable, SnippetVersionsTable} {
		assert.True(t, m.HasTable(table), table)
	}
	assert.True(t, m.HasIndex(PagesTable, "idx_pages_path"))
	assert.True(t, m.HasIndex(SnippetsTable, "idx_snippets_path"))
	assert.True(t, m.HasIndex(PageVersionsTable, "idx_page_versions_content_id"))

	// Records land in their own deployment
	page := models.Content{ID: "abc123", Name: "Home", Code: "<h1>hi</h1>"}
	require.NoError(t, db.Table(PagesTable).Create(&page).Error)

	var count int64
	require.NoError(t, db.Table(SnippetsTable).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Table(PagesTable).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUniqueSlugIsDuplicateKey(t *testing.T) {
	db, err := gorm.Open(glebarez.Open("file:uniqueslug?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Create(&models.Project{ID: "p1", Name: "One", Slug: "same", Owner: "u"}).Error)
	err = db.Create(&models.Project{ID: "p2", Name: "Two", Slug: "same", Owner: "u"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))
}
