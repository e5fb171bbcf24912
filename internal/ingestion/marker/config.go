// Package marker normalizes version/release/edition markers against
// per-tenant rule documents and entity anchors. Normalization is
// safe-by-default: anything uncertain stays UNRESOLVED rather than
// guessing, and a blacklist short-circuits known noise.
package marker

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	pkgerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

// Rule is one ordered normalization rule. Templates may reference
// {entity}, {base_version}, and {$1}..{$N} capture groups.
type Rule struct {
	ID                  string  `yaml:"id"`
	Pattern             string  `yaml:"pattern"`
	RequiresEntity      bool    `yaml:"requires_entity"`
	RequiresStrongEntity bool   `yaml:"requires_strong_entity"`
	RequiresBaseVersion bool    `yaml:"requires_base_version"`
	OutputTemplate      string  `yaml:"output_template"`
	Priority            int     `yaml:"priority"`
	Confidence          float64 `yaml:"confidence"`
	Enabled             bool    `yaml:"enabled"`

	re *regexp.Regexp
}

// Constraints bound how aggressively normalization may resolve.
type Constraints struct {
	RequireEntityForAmbiguous bool    `yaml:"require_entity_for_ambiguous"`
	AutoApplyThreshold        float64 `yaml:"auto_apply_threshold"`
	MaxAliases                int     `yaml:"max_aliases"`
	SingleEntityRequired      bool    `yaml:"single_entity_required"`
}

// Config is a tenant's marker-normalization document.
type Config struct {
	TenantID    string            `yaml:"tenant_id"`
	Version     int               `yaml:"version"`
	Aliases     map[string]string `yaml:"aliases"`
	Rules       []Rule            `yaml:"rules"`
	Blacklist   []string          `yaml:"blacklist"`
	Constraints Constraints       `yaml:"constraints"`

	blacklistSet map[string]struct{}
}

// ParseConfig decodes and validates a tenant document: regexes must
// compile, rule ids must be unique, alias count must respect max_aliases.
// Rules come out sorted by priority descending, ties by document order.
func ParseConfig(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("marker config: %w", err)
	}
	if strings.TrimSpace(cfg.TenantID) == "" {
		return nil, fmt.Errorf("marker config: tenant_id required: %w", pkgerrors.ErrInvalidArgument)
	}
	if cfg.Constraints.MaxAliases > 0 && len(cfg.Aliases) > cfg.Constraints.MaxAliases {
		return nil, fmt.Errorf("marker config: %d aliases exceeds max_aliases=%d: %w",
			len(cfg.Aliases), cfg.Constraints.MaxAliases, pkgerrors.ErrInvalidArgument)
	}

	seen := map[string]struct{}{}
	for i := range cfg.Rules {
		r := &cfg.Rules[i]
		if r.ID == "" {
			return nil, fmt.Errorf("marker config: rule %d missing id: %w", i, pkgerrors.ErrInvalidArgument)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("marker config: duplicate rule id %q: %w", r.ID, pkgerrors.ErrInvalidArgument)
		}
		seen[r.ID] = struct{}{}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("marker config: rule %q pattern: %w", r.ID, err)
		}
		r.re = re
	}
	sort.SliceStable(cfg.Rules, func(i, j int) bool {
		return cfg.Rules[i].Priority > cfg.Rules[j].Priority
	})

	cfg.blacklistSet = make(map[string]struct{}, len(cfg.Blacklist))
	for _, b := range cfg.Blacklist {
		cfg.blacklistSet[normalizeRaw(b)] = struct{}{}
	}
	return &cfg, nil
}

func (c *Config) blacklisted(raw string) bool {
	_, hit := c.blacklistSet[normalizeRaw(raw)]
	return hit
}

func normalizeRaw(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ConfigCache loads tenant documents from a directory of
// <tenant_id>.yaml files and caches them until the version in the file
// bumps. Reload is explicit (per-document callers pass the version they
// expect) rather than fs-watching.
type ConfigCache struct {
	mu      sync.RWMutex
	baseDir string
	byID    map[string]*Config
}

func NewConfigCache(baseDir string) *ConfigCache {
	return &ConfigCache{baseDir: baseDir, byID: map[string]*Config{}}
}

// Get returns the cached config for tenantID, loading it on first use.
// minVersion > cached version forces a reload.
func (cc *ConfigCache) Get(tenantID string, minVersion int) (*Config, error) {
	cc.mu.RLock()
	cached, ok := cc.byID[tenantID]
	cc.mu.RUnlock()
	if ok && cached.Version >= minVersion {
		return cached, nil
	}

	raw, err := os.ReadFile(fmt.Sprintf("%s/%s.yaml", cc.baseDir, tenantID))
	if err != nil {
		return nil, fmt.Errorf("marker config for tenant %s: %w", tenantID, err)
	}
	cfg, err := ParseConfig(raw)
	if err != nil {
		return nil, err
	}
	cc.mu.Lock()
	cc.byID[tenantID] = cfg
	cc.mu.Unlock()
	return cfg, nil
}
