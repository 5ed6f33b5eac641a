package http

import "embed"

// publicFS holds the live dashboard served at "/".
//
//go:embed public
var publicFS embed.FS
