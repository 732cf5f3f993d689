// Package config loads the service configuration from YAML.
//
// Values are decoded over Default, so a file only lists what it changes.
// Credential fields may hold ${ENV} references or secretref:<provider>:<ref>
// values; both are resolved before validation. Validate reports every
// problem at once.
package config
