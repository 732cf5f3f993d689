package cache

import (
	"fmt"
	"strings"
	"time"
)

// Built-in namespace names.
const (
	NamespaceWeather = "weather"
	NamespaceCity    = "city"
)

// MaxNamespaceLength bounds namespace names.
const MaxNamespaceLength = 64

// Bucket selects the time granularity folded into a namespace's keys.
type Bucket int

const (
	// BucketNone keys entries by subject only.
	BucketNone Bucket = iota
	// BucketHour appends the local hour (20060102_15).
	BucketHour
	// BucketDay appends the local day (20060102).
	BucketDay
)

// ParseBucket parses "none", "hour" or "day". The empty string is BucketNone.
func ParseBucket(s string) (Bucket, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return BucketNone, nil
	case "hour":
		return BucketHour, nil
	case "day":
		return BucketDay, nil
	default:
		return BucketNone, fmt.Errorf("%w: %q", ErrInvalidBucket, s)
	}
}

func (b Bucket) String() string {
	switch b {
	case BucketHour:
		return "hour"
	case BucketDay:
		return "day"
	default:
		return "none"
	}
}

func (b Bucket) layout() string {
	switch b {
	case BucketHour:
		return "20060102_15"
	case BucketDay:
		return "20060102"
	default:
		return ""
	}
}

// Namespace is a logical cache partition with its own TTL.
type Namespace struct {
	Name   string
	TTL    time.Duration
	Bucket Bucket
}

// Key derives the composite key for subject at time now.
//
// Format: <name>_<subject> or <name>_<subject>_<bucket>. Two lookups for
// the same subject inside one bucket always produce the same key.
func (n Namespace) Key(subject string, now time.Time) string {
	layout := n.Bucket.layout()
	if layout == "" {
		return n.Name + "_" + subject
	}
	return n.Name + "_" + subject + "_" + now.Format(layout)
}

// Validate checks the namespace definition.
func (n Namespace) Validate() error {
	if n.Name == "" || len(n.Name) > MaxNamespaceLength {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, n.Name)
	}
	// "_" separates key parts; a namespace containing it could collide with
	// another namespace's keys.
	if strings.ContainsAny(n.Name, "_ \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, n.Name)
	}
	if n.TTL <= 0 {
		return fmt.Errorf("%w: namespace %q has ttl %s", ErrInvalidTTL, n.Name, n.TTL)
	}
	if n.Bucket < BucketNone || n.Bucket > BucketDay {
		return fmt.Errorf("%w: %d", ErrInvalidBucket, n.Bucket)
	}
	return nil
}
