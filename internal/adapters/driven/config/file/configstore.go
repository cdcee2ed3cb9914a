// Package file provides the TOML-backed settings store. Settings live in
// dot-notation keys and are assembled into a validated domain.Config at
// startup.
package file

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

// Environment overrides for secrets, so tokens can stay out of the file.
const (
	EnvGraphToken   = "TANATAG_API_TOKEN"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// ConfigStore is a file-based settings store using TOML.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a TOML-based settings store.
// If configDir is empty, defaults to ~/.tanatag/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".tanatag")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Get retrieves a settings value by dot-notation key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// GetInt retrieves an integer value.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	// TOML integers are parsed as int64
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetFloat retrieves a float value. TOML may parse whole numbers as
// integers, so both are accepted.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}
	b, ok := val.(bool)
	if !ok {
		return false
	}
	return b
}

// GetStringSlice retrieves a string slice value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, ok := s.Get(key)
	if !ok {
		return nil
	}
	// TOML arrays are parsed as []any
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

// Set stores a value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Save persists the current settings to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes settings to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.data)
	if err != nil {
		return err
	}
	// Restricted permissions: the file may hold an API token.
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads settings from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}
	if loaded == nil {
		loaded = make(map[string]any)
	}

	// Flatten nested tables into dot-notation keys for easier access
	s.data = flattenMap(loaded, "")
	return nil
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// Path returns the settings file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// BuildConfig assembles a validated domain.Config from the stored settings
// and environment overrides.
func (s *ConfigStore) BuildConfig() (*domain.Config, error) {
	cfg := &domain.Config{
		WorkspaceID:          s.GetString("workspace.id"),
		GraphURL:             s.GetString("graph.url"),
		GraphToken:           s.GetString("graph.token"),
		EmbeddingProvider:    s.GetString("embedding.provider"),
		EmbeddingModel:       s.GetString("embedding.model"),
		ExcludedLabelIDs:     s.GetStringSlice("labels.excluded"),
		StructuralContainers: s.GetStringSlice("filter.structural_containers"),
		TopK:                 s.GetInt("pipeline.top_k"),
		MinScore:             s.GetFloat("pipeline.min_score"),
		DaysBack:             s.GetInt("pipeline.days_back"),
		WebhookURL:           s.GetString("notify.webhook_url"),
	}

	if minutes := s.GetInt("session.ttl_minutes"); minutes > 0 {
		cfg.SessionTTL = time.Duration(minutes) * time.Minute
	}
	if seconds := s.GetInt("graph.timeout_seconds"); seconds > 0 {
		cfg.RequestTimeout = time.Duration(seconds) * time.Second
	}
	if token := os.Getenv(EnvGraphToken); token != "" {
		cfg.GraphToken = token
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
