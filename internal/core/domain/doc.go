// Package domain contains the core business entities for the auto-tagger:
// labels, notes, tag suggestions, ledger assignments and review sessions.
// Domain types carry no infrastructure dependencies.
package domain
