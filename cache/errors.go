package cache

import "errors"

// Sentinel errors for pool configuration.
var (
	ErrUnknownNamespace   = errors.New("cache: unknown namespace")
	ErrInvalidNamespace   = errors.New("cache: namespace name is invalid")
	ErrDuplicateNamespace = errors.New("cache: duplicate namespace")
	ErrInvalidTTL         = errors.New("cache: ttl must be positive")
	ErrInvalidBucket      = errors.New("cache: unknown bucket")
	ErrInvalidCapacity    = errors.New("cache: max entries must be positive")
	ErrInvalidThreshold   = errors.New("cache: refresh threshold must be within (0, 1)")
)
