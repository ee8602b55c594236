package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/localnerve/pagesdb/data"
	"github.com/localnerve/pagesdb/internal/models"
)

var (
	siteTemplate    = template.Must(template.New("site").Parse(data.SiteTemplate))
	snippetTemplate = template.Must(template.New("snippet").Parse(data.SnippetTemplate))
)

// NavLink is one entry of a project's navigation
type NavLink struct {
	ID   string
	Name string
	Link string
}

// SiteView is the data the site template renders
type SiteView struct {
	Project  *models.Project
	Page     *models.Content
	NavPages []NavLink
	Code     template.HTML
	Base     string
	EditURL  string
}

// NavigationLinks keeps the pages flagged addToNavigation, in the given order.
// Pages with a path link by path, the rest by id.
func NavigationLinks(pages []models.Content) []NavLink {
	links := []NavLink{}
	for _, p := range pages {
		if !p.AddToNavigation {
			continue
		}
		link := "p/" + p.ID
		if p.Path != "" {
			link = p.Path
		}
		links = append(links, NavLink{ID: p.ID, Name: p.Name, Link: link})
	}
	return links
}

// ProjectRef is the token used in public URLs, the slug when there is one
func ProjectRef(project *models.Project) string {
	if project.Slug != "" {
		return project.Slug
	}
	return project.ID
}

// RenderSitePage renders a page of a project as a complete document.
// Page code is user authored markup and is emitted as is.
func RenderSitePage(project *models.Project, page *models.Content, pages []models.Content) (string, error) {
	view := SiteView{
		Project:  project,
		Page:     page,
		NavPages: NavigationLinks(pages),
		Code:     template.HTML(page.Code),
		Base:     "/app/" + ProjectRef(project),
		EditURL:  fmt.Sprintf("/app/%s/%s", ProjectRef(project), page.ID),
	}

	var buf bytes.Buffer
	if err := siteTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render page %s: %w", page.ID, err)
	}
	return buf.String(), nil
}

// BuildSnippetHTML wraps snippet code in a document that loads Tailwind
func BuildSnippetHTML(code string) (string, error) {
	var buf bytes.Buffer
	err := snippetTemplate.Execute(&buf, struct{ Code template.HTML }{template.HTML(code)})
	if err != nil {
		return "", fmt.Errorf("render snippet: %w", err)
	}
	return buf.String(), nil
}
