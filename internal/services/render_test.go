package services

import (
	"strings"
	"testing"

	"github.com/localnerve/pagesdb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigationLinks(t *testing.T) {
	pages := []models.Content{
		{ID: "home01", Name: "Home", Path: "home", AddToNavigation: true},
		{ID: "hidden", Name: "Hidden", Path: "hidden"},
		{ID: "nopath", Name: "About", AddToNavigation: true},
	}

	links := NavigationLinks(pages)
	require.Len(t, links, 2)
	assert.Equal(t, NavLink{ID: "home01", Name: "Home", Link: "home"}, links[0])
	assert.Equal(t, NavLink{ID: "nopath", Name: "About", Link: "p/nopath"}, links[1])

	assert.Empty(t, NavigationLinks(nil))
}

func TestProjectRef(t *testing.T) {
	assert.Equal(t, "demo", ProjectRef(&models.Project{ID: "abc123", Slug: "demo"}))
	assert.Equal(t, "abc123", ProjectRef(&models.Project{ID: "abc123"}))
}

func TestRenderSitePage(t *testing.T) {
	project := &models.Project{ID: "abc123", Name: "Demo", Slug: "demo"}
	page := &models.Content{ID: "home01", Name: "Home", Path: "home", AddToNavigation: true, Code: `<h1 class="x">Hi</h1>`}
	other := models.Content{ID: "about1", Name: "About", Path: "about", AddToNavigation: true}

	html, err := RenderSitePage(project, page, []models.Content{*page, other})
	require.NoError(t, err)

	assert.Contains(t, html, "<title>Home | Demo</title>")
	assert.Contains(t, html, `<h1 class="x">Hi</h1>`)
	assert.Contains(t, html, `href="/app/demo/about"`)
	assert.Contains(t, html, `href="/app/demo/home" aria-current="page"`)
	assert.Contains(t, html, `href="/app/demo/home01"`)
	assert.Contains(t, html, "cdn.tailwindcss.com")
}

func TestRenderSitePageMetaTitle(t *testing.T) {
	project := &models.Project{ID: "abc123", Name: "Demo"}
	page := &models.Content{ID: "home01", Name: "Home", MetaTitle: "Welcome <friends>"}

	html, err := RenderSitePage(project, page, nil)
	require.NoError(t, err)

	assert.Contains(t, html, "<title>Welcome &lt;friends&gt;</title>")
	assert.NotContains(t, html, "<nav")
	assert.Contains(t, html, `href="/app/abc123/home01"`)
}

func TestBuildSnippetHTML(t *testing.T) {
	html, err := BuildSnippetHTML(`<button class="btn">Go</button>`)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, `<button class="btn">Go</button>`)
	assert.Contains(t, html, "cdn.tailwindcss.com")
}
