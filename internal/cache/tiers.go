package cache

import (
	"fmt"
	"strings"
	"time"
)

// Tier names a revalidation window. Each upstream endpoint is bound to one.
type Tier int

const (
	// NoStore responses are never cached (video links carry expiring tokens).
	NoStore Tier = iota
	Latest
	Search
	Popular
	Detail
	Images
	Static
)

var tierNames = map[Tier]string{
	NoStore: "no-store",
	Latest:  "latest",
	Search:  "search",
	Popular: "popular",
	Detail:  "detail",
	Images:  "images",
	Static:  "static",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier maps a tier name back to its Tier.
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range tierNames {
		if name == s {
			return t, nil
		}
	}
	return NoStore, fmt.Errorf("unknown cache tier %q", s)
}

// Policy holds the duration of every cacheable tier.
type Policy struct {
	Latest  time.Duration `yaml:"latest"`
	Search  time.Duration `yaml:"search"`
	Popular time.Duration `yaml:"popular"`
	Detail  time.Duration `yaml:"detail"`
	Images  time.Duration `yaml:"images"`
	Static  time.Duration `yaml:"static"`
}

// DefaultPolicy returns the built-in tier durations.
func DefaultPolicy() Policy {
	return Policy{
		Latest:  2 * time.Minute,
		Search:  3 * time.Minute,
		Popular: 15 * time.Minute,
		Detail:  30 * time.Minute,
		Images:  time.Hour,
		Static:  24 * time.Hour,
	}
}

// Duration returns the revalidation window of t. NoStore and unknown tiers are 0.
func (p Policy) Duration(t Tier) time.Duration {
	switch t {
	case Latest:
		return p.Latest
	case Search:
		return p.Search
	case Popular:
		return p.Popular
	case Detail:
		return p.Detail
	case Images:
		return p.Images
	case Static:
		return p.Static
	default:
		return 0
	}
}

// Validate checks that every tier is positive and that the tiers are
// strictly ordered: latest < search < popular < detail < images < static.
func (p Policy) Validate() error {
	ordered := []Tier{Latest, Search, Popular, Detail, Images, Static}

	var prev time.Duration
	for i, t := range ordered {
		d := p.Duration(t)
		if d <= 0 {
			return fmt.Errorf("cache tier %s must be positive, got %s", t, d)
		}
		if i > 0 && d <= prev {
			return fmt.Errorf("cache tier %s (%s) must be longer than %s (%s)", t, d, ordered[i-1], prev)
		}
		prev = d
	}
	return nil
}
