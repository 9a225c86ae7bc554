package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/BY1502/ai-interview-service/pkg"
	"github.com/BY1502/ai-interview-service/pkg/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templateFS embed.FS

// raw HTML in report markdown is dropped; goldmark omits it unless told
// otherwise
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Templates parses the page templates with their helper funcs.
func Templates() (*template.Template, error) {
	t, err := template.New("pages").Funcs(template.FuncMap{
		"markdown": renderMarkdown,
		"score":    pkg.FormatScore,
		"when":     formatWhen,
		"pct":      func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
		"fixed":    func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"join":     strings.Join,
		"inc":      func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func formatWhen(s string) string {
	t, err := model.ParseTimestamp(s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02 15:04")
}
