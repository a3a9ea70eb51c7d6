// Package pages renders the HTML interstitials served on link resolution.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
)

//go:embed templates/*.html
var builtin embed.FS

// Page names an interstitial.
type Page string

const (
	NotFound   Page = "notfound.html"
	NoReferrer Page = "noreferrer.html"
	Unsafe     Page = "unsafe.html"
)

// Renderer produces a page with target substituted in.
type Renderer interface {
	Render(page Page, target string) ([]byte, error)
}

// TemplateRenderer renders pages from html/template files.
type TemplateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer loads the built-in pages. When dir is set, any of
// notfound.html, noreferrer.html and unsafe.html found there replace the
// built-in page of the same name.
func NewTemplateRenderer(dir string) (*TemplateRenderer, error) {
	tmpl, err := template.ParseFS(builtin, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse built-in pages: %w", err)
	}

	if dir != "" {
		overrides := os.DirFS(dir)

		matches, err := fs.Glob(overrides, "*.html")
		if err != nil {
			return nil, fmt.Errorf("list pages in %s: %w", dir, err)
		}

		if len(matches) > 0 {
			if tmpl, err = tmpl.ParseFS(overrides, matches...); err != nil {
				return nil, fmt.Errorf("parse pages in %s: %w", dir, err)
			}
		}
	}

	return &TemplateRenderer{tmpl: tmpl}, nil
}

type pageData struct {
	Target string
}

func (r *TemplateRenderer) Render(page Page, target string) ([]byte, error) {
	var buf bytes.Buffer

	if err := r.tmpl.ExecuteTemplate(&buf, string(page), pageData{Target: target}); err != nil {
		return nil, fmt.Errorf("render %s: %w", page, err)
	}

	return buf.Bytes(), nil
}

var _ Renderer = (*TemplateRenderer)(nil)
