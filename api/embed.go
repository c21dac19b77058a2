// Package api holds the HTTP contract served at /docs.
package api

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
