package render

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded template bundle for consumers that want
// to reuse or extend the built-in pages.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
