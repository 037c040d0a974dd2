// Package web holds the dashboard's HTML templates.
package web

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/iqac-kare/feedback-dashboard/internal/models"
	"github.com/iqac-kare/feedback-dashboard/internal/scoring"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses every page template with the dashboard's helper functions
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Funcs are the helpers available to templates
func Funcs() template.FuncMap {
	return template.FuncMap{
		"initials": func(f models.Faculty) string { return f.Initials() },
		"staffID":  func(f models.Faculty) string { return f.ID() },
		"band":     scoring.Band,
		"percent":  func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"score":    func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"add":      func(a, b int) int { return a + b },
		"sections": func() []models.SectionType { return models.SectionTypes },
	}
}
