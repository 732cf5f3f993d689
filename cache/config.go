package cache

import (
	"errors"
	"fmt"
	"time"
)

// Config configures a Pool. It is read once at construction.
type Config struct {
	// MaxEntries is the capacity shared by every namespace.
	MaxEntries int

	// EnableRefreshHint turns NeedsRefresh on. When false it always reports false.
	EnableRefreshHint bool

	// RefreshThreshold is the default elapsed-TTL fraction past which an
	// entry needs refreshing.
	RefreshThreshold float64

	// Namespaces lists the partitions the pool accepts.
	Namespaces []Namespace
}

// DefaultConfig returns the weather and city namespaces with a capacity of 50.
//
//	weather: 1h TTL, hourly buckets
//	city:    24h TTL, unbucketed
func DefaultConfig() Config {
	return Config{
		MaxEntries:        50,
		EnableRefreshHint: true,
		RefreshThreshold:  0.8,
		Namespaces: []Namespace{
			{Name: NamespaceWeather, TTL: time.Hour, Bucket: BucketHour},
			{Name: NamespaceCity, TTL: 24 * time.Hour, Bucket: BucketNone},
		},
	}
}

// Validate reports every configuration problem found.
func (c Config) Validate() error {
	var errs []error

	if c.MaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidCapacity, c.MaxEntries))
	}
	if c.RefreshThreshold <= 0 || c.RefreshThreshold >= 1 {
		errs = append(errs, fmt.Errorf("%w: got %g", ErrInvalidThreshold, c.RefreshThreshold))
	}
	if len(c.Namespaces) == 0 {
		errs = append(errs, fmt.Errorf("%w: none configured", ErrInvalidNamespace))
	}

	seen := make(map[string]struct{}, len(c.Namespaces))
	for _, ns := range c.Namespaces {
		if err := ns.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[ns.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateNamespace, ns.Name))
		}
		seen[ns.Name] = struct{}{}
	}

	return errors.Join(errs...)
}
