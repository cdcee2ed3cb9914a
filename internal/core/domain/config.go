package domain

import (
	"fmt"
	"time"
)

// Default pipeline settings.
const (
	DefaultTopK     = 3
	DefaultMinScore = 0.25
	DefaultDaysBack = 7

	// DefaultGraphURL is where the Tana local API listens on a stock
	// install.
	DefaultGraphURL = "http://localhost:7360"
)

// DefaultStructuralContainers are the organisational headers the hierarchy
// filter treats as transparent. Overridable in the config file.
var DefaultStructuralContainers = []string{
	"Daily Preparation",
	"Action: Plan for Today",
	"Inbox",
	"Agenda",
	"Tasks",
	"Notes",
}

// Config is the validated application configuration, constructed once at
// startup and passed down explicitly. Invalid values fail fast as
// ErrConfiguration rather than surfacing deep in the pipeline.
type Config struct {
	// WorkspaceID is the Tana workspace to operate on.
	WorkspaceID string

	// GraphURL is the base URL of the Tana local API.
	GraphURL string

	// GraphToken authenticates against the local API, when required.
	GraphToken string

	// EmbeddingProvider selects the embedding adapter ("ollama" or "openai").
	EmbeddingProvider string

	// EmbeddingModel is the embedding model identifier. Label and target
	// embeddings must come from the same model.
	EmbeddingModel string

	// ExcludedLabelIDs are system/noise labels configured out of scoring.
	ExcludedLabelIDs []string

	// StructuralContainers are note titles treated as transparent
	// organisational scaffolding by the hierarchy filter.
	StructuralContainers []string

	// TopK is the maximum number of suggestions per target.
	TopK int

	// MinScore is the confidence floor for suggestions, in [0,1].
	MinScore float64

	// DaysBack is the default sync window.
	DaysBack int

	// SessionTTL is the idle expiry for review sessions.
	SessionTTL time.Duration

	// RequestTimeout bounds individual graph-API requests.
	RequestTimeout time.Duration

	// WebhookURL receives run-complete and apply-result notifications.
	// Empty disables notification.
	WebhookURL string
}

// Validate checks the configuration and returns ErrConfiguration with a
// description of the first invalid field.
func (c *Config) Validate() error {
	if c.WorkspaceID == "" {
		return fmt.Errorf("%w: workspace ID is required", ErrConfiguration)
	}
	if c.GraphURL == "" {
		return fmt.Errorf("%w: graph URL is required", ErrConfiguration)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: embedding model is required", ErrConfiguration)
	}
	switch c.EmbeddingProvider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrConfiguration, c.EmbeddingProvider)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be positive, got %d", ErrConfiguration, c.TopK)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("%w: min score must be in [0,1], got %g", ErrConfiguration, c.MinScore)
	}
	if c.DaysBack <= 0 {
		return fmt.Errorf("%w: days back must be positive, got %d", ErrConfiguration, c.DaysBack)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: session TTL must be positive", ErrConfiguration)
	}
	return nil
}

// ApplyDefaults fills zero-valued optional fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.GraphURL == "" {
		c.GraphURL = DefaultGraphURL
	}
	if c.EmbeddingProvider == "" {
		c.EmbeddingProvider = "ollama"
	}
	if c.TopK == 0 {
		c.TopK = DefaultTopK
	}
	if c.MinScore == 0 {
		c.MinScore = DefaultMinScore
	}
	if c.DaysBack == 0 {
		c.DaysBack = DefaultDaysBack
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = SessionTTL
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.StructuralContainers == nil {
		c.StructuralContainers = DefaultStructuralContainers
	}
}
