package data

import (
	_ "embed"
)

// HomePageMarkup is the starting code of a new project's Home page
//
//go:embed templates/home.html
var HomePageMarkup string

// SiteTemplate renders a project page with its navigation
//
//go:embed templates/site.html
var SiteTemplate string

// SnippetTemplate wraps snippet code in a standalone document
//
//go:embed templates/snippet.html
var SnippetTemplate string

// GenerateSystemPrompt instructs the LLM when generating or editing markup
//
//go:embed prompts/generate.txt
var GenerateSystemPrompt string
