// Package web bundles the dashboard templates and browser assets into the binary.
package web

import "embed"

// TemplatesFS holds the page and fragment templates (index, auth, history, goals).
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds app.css and app.js, served under /static/.
//
//go:embed static
var StaticFS embed.FS
