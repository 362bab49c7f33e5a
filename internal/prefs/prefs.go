// Package prefs holds the two durable slots of the refresh controller: the
// per-address interval map and the global panel position.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/autorefresh/internal/storage"
	"github.com/ensigniasec/autorefresh/internal/validate"
)

// Storage keys. They match the keys used by earlier releases so existing
// stores keep working.
const (
	ConfigKey   = "urlRefreshMap"
	PositionKey = "autoRefreshPanelPos_v1"
)

// ErrInvalidInterval is returned when a write would store an interval below
// the minimum.
var ErrInvalidInterval = errors.New("invalid refresh interval")

// RefreshConfig maps an address to its refresh interval in seconds.
type RefreshConfig map[string]int

// Entry is one address/interval pair.
type Entry struct {
	Address  string `json:"address"  yaml:"address"  validate:"required"`
	Interval int    `json:"interval" yaml:"interval" validate:"refresh_interval"`
}

// Entries returns the configuration sorted by address.
func (c RefreshConfig) Entries() []Entry {
	out := make([]Entry, 0, len(c))
	for addr, secs := range c {
		out = append(out, Entry{Address: addr, Interval: secs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// ConfigStore reads and writes the RefreshConfig.
type ConfigStore struct {
	store storage.Store
}

func NewConfigStore(s storage.Store) *ConfigStore {
	return &ConfigStore{store: s}
}

// Load returns the stored configuration. Missing or malformed data yields an
// empty map.
func (c *ConfigStore) Load(ctx context.Context) RefreshConfig {
	raw := c.store.Get(ctx, ConfigKey, "{}")
	cfg := RefreshConfig{}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		logrus.WithField("key", ConfigKey).Debugf("discarding unreadable refresh config: %v", err)
		return RefreshConfig{}
	}
	if cfg == nil {
		return RefreshConfig{}
	}
	return cfg
}

// Save writes cfg. No entry is written if any entry is below the minimum.
func (c *ConfigStore) Save(ctx context.Context, cfg RefreshConfig) error {
	for _, e := range cfg.Entries() {
		if err := validate.Struct(e); err != nil {
			return fmt.Errorf("%w: %q=%d", ErrInvalidInterval, e.Address, e.Interval)
		}
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, ConfigKey, string(raw))
}

// Lookup returns the interval configured for address. It reports false when
// nothing usable is stored.
func (c *ConfigStore) Lookup(ctx context.Context, address string) (int, bool) {
	secs, ok := c.Load(ctx)[address]
	if !ok || validate.Interval(secs) != nil {
		return 0, false
	}
	return secs, true
}

// Put stores seconds for address, merging into a freshly loaded copy.
func (c *ConfigStore) Put(ctx context.Context, address string, seconds int) error {
	if err := validate.Interval(seconds); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInterval, err)
	}
	cfg := c.Load(ctx)
	cfg[address] = seconds
	// Entries written by older releases may be below the floor; drop them
	// rather than refusing the whole write.
	for addr, secs := range cfg {
		if validate.Interval(secs) != nil {
			logrus.WithField("address", addr).Debug("dropping stored interval below minimum")
			delete(cfg, addr)
		}
	}
	logrus.WithField("address", address).Debugf("storing refresh interval %ds", seconds)
	return c.Save(ctx, cfg)
}

// Delete removes the entry for address. It reports whether an entry existed;
// nothing is written when it did not.
func (c *ConfigStore) Delete(ctx context.Context, address string) (bool, error) {
	cfg := c.Load(ctx)
	if _, ok := cfg[address]; !ok {
		return false, nil
	}
	delete(cfg, address)
	for addr, secs := range cfg {
		if validate.Interval(secs) != nil {
			delete(cfg, addr)
		}
	}
	logrus.WithField("address", address).Debug("removing refresh interval")
	if err := c.Save(ctx, cfg); err != nil {
		return true, err
	}
	return true, nil
}

// Print writes the configuration as a simple listing.
func (c *ConfigStore) Print(ctx context.Context, w io.Writer) {
	entries := c.Load(ctx).Entries()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No refresh intervals configured.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%6ds  %s\n", e.Interval, e.Address)
	}
}

// Position is the panel's top-left corner in terminal cells.
type Position struct {
	Left int `json:"left"`
	Top  int `json:"top"`
}

// PositionStore reads and writes the global panel position.
type PositionStore struct {
	store storage.Store
}

func NewPositionStore(s storage.Store) *PositionStore {
	return &PositionStore{store: s}
}

// Load returns the remembered position. It reports false when none is stored
// or the stored value is not a finite pair.
func (p *PositionStore) Load(ctx context.Context) (Position, bool) {
	raw := p.store.Get(ctx, PositionKey, "")
	if raw == "" {
		return Position{}, false
	}
	// Decode through float64 so values written as fractions still load.
	var v struct {
		Left *float64 `json:"left"`
		Top  *float64 `json:"top"`
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		logrus.WithField("key", PositionKey).Debugf("discarding unreadable panel position: %v", err)
		return Position{}, false
	}
	if !finite(v.Left) || !finite(v.Top) {
		return Position{}, false
	}
	return Position{Left: int(math.Round(*v.Left)), Top: int(math.Round(*v.Top))}, true
}

// Save stores pos.
func (p *PositionStore) Save(ctx context.Context, pos Position) error {
	raw, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, PositionKey, string(raw))
}

// Clear forgets the stored position so the panel returns to its default anchor.
func (p *PositionStore) Clear(ctx context.Context) error {
	return p.store.Set(ctx, PositionKey, "")
}

func finite(f *float64) bool {
	return f != nil && !math.IsNaN(*f) && !math.IsInf(*f, 0)
}
