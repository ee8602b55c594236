package models

import (
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func TestJSONScan(t *testing.T) {
	var j JSON
	require.NoError(t, j.Scan([]byte(`{"personal":true}`)))
	assert.JSONEq(t, `{"personal":true}`, string(j.JSON))

	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j.JSON)

	v, err := NewJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	value, err := v.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, value)
}

func TestColumnTypes(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	assert.Equal(t, "TEXT", Markup("").GormDBDataType(db, &schema.Field{}))
	assert.Equal(t, "JSON", JSON{}.GormDBDataType(db, &schema.Field{}))
}

func TestContentJSON(t *testing.T) {
	raw, err := json.Marshal(Content{ID: "abc123", Name: "Home", Code: "<p></p>", AddToNavigation: true})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "abc123", out["_id"])
	assert.Equal(t, "<p></p>", out["code"])
	assert.Equal(t, true, out["addToNavigation"])
	assert.NotContains(t, out, "projectId")

	raw, err = json.Marshal(Version{ID: "v1", ContentID: "abc123", VersionID: "ab12"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "abc123")
}
