// Package seed loads sample notes used to populate an empty store.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed samples.yaml
var samples []byte

// Entry is one sample note. Offsets are relative to the moment of seeding.
type Entry struct {
	Title      string  `yaml:"title"`
	Body       string  `yaml:"body"`
	Created    Offset  `yaml:"created"`
	Updated    *Offset `yaml:"updated"`
	NextReview *Offset `yaml:"next_review"`
}

// Offset is a signed duration. Besides Go duration syntax ("-36h") it accepts
// whole days with a "d" suffix ("-5d").
type Offset time.Duration

// Duration returns o as a time.Duration.
func (o Offset) Duration() time.Duration { return time.Duration(o) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Offset) UnmarshalYAML(value *yaml.Node) error {
	d, err := ParseOffset(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*o = Offset(d)
	return nil
}

// ParseOffset parses a Go duration or a whole number of days ("3d", "-1d").
func ParseOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("seed: invalid day offset %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("seed: invalid offset %q: %w", s, err)
	}
	return d, nil
}

// Times resolves the entry's offsets against now. Updated defaults to Created.
func (e Entry) Times(now time.Time) (created, updated time.Time, next *time.Time) {
	created = now.Add(e.Created.Duration())
	updated = created
	if e.Updated != nil {
		updated = now.Add(e.Updated.Duration())
	}
	if e.NextReview != nil {
		t := now.Add(e.NextReview.Duration())
		next = &t
	}
	return created, updated, next
}

// Parse decodes a YAML list of entries.
func Parse(data []byte) ([]Entry, error) {
	var out []Entry
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	for i, e := range out {
		if strings.TrimSpace(e.Title) == "" {
			return nil, fmt.Errorf("seed: entry %d: title is required", i)
		}
	}
	return out, nil
}

// Load reads entries from path, or the built-in samples when path is empty.
func Load(path string) ([]Entry, error) {
	if path == "" {
		return Parse(samples)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(data)
}
