// Package sqlite archives daily weather records in a SQLite database using
// the pure-Go modernc.org/sqlite driver.
//
// Each configured system alias owns one table keyed by location and date.
// The forecast list is stored as JSON, zstd-compressed once it passes
// CompressionThreshold.
package sqlite
