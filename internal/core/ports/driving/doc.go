// Package driving provides interfaces consumed by user-facing adapters
// (primary/inbound ports): the CLI, the review TUI and the MCP surface.
package driving
