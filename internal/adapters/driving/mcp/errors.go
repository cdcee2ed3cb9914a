// Package mcp provides an MCP (Model Context Protocol) server adapter for
// the tagger. It lets AI assistants drive sync, classification and apply
// against the local snapshot.
package mcp

import "errors"

// Errors returned when required ports are not provided.
var (
	ErrMissingSyncService     = errors.New("mcp: sync service is required")
	ErrMissingClassifyService = errors.New("mcp: classify service is required")
	ErrMissingReviewService   = errors.New("mcp: review service is required")
)
