// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the graph source, embedding providers,
// the ledger and snapshot stores, and the notification channel.
package driven
