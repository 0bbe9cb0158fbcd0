// Package provider keeps the configured payment providers and their
// webhook credentials.
package provider

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type Config struct {
	Name         string            `json:"name"`
	Kind         string            `json:"kind"`
	BaseURL      string            `json:"base_url"`
	APIKey       string            `json:"api_key"`
	WebhookToken string            `json:"webhook_token"`
	Extra        map[string]string `json:"extra"`
	Enabled      bool              `json:"enabled"`
}

type providersFile struct {
	Providers []Config `json:"providers"`
}

type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Config
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*Config),
	}
}

// LoadFromFile reads the providers config. A missing file yields an
// empty registry so deployments can rely on env-configured providers
// alone.
func LoadFromFile(path string) (*Registry, error) {
	registry := NewRegistry()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return registry, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read providers config: %w", err)
	}

	var file providersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse providers config: %w", err)
	}

	for i := range file.Providers {
		registry.Register(&file.Providers[i])
	}
	return registry, nil
}

func (r *Registry) Register(cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[cfg.Name] = cfg
}

func (r *Registry) Get(name string) *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

func (r *Registry) All() []*Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Config, 0, len(r.providers))
	for _, cfg := range r.providers {
		result = append(result, cfg)
	}
	return result
}

// VerifyWebhookToken checks a presented webhook token against the
// provider's configured one in constant time. Providers without a
// configured token reject everything.
func (r *Registry) VerifyWebhookToken(name, presented string) bool {
	r.mu.RLock()
	cfg, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok || cfg.WebhookToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cfg.WebhookToken), []byte(presented)) == 1
}
