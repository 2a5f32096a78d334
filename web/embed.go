// Package web holds files compiled into the binary.
package web

import "embed"

// TemplatesFS holds the printable report page.
//
//go:embed templates/*.html
var TemplatesFS embed.FS
