// Package config exposes typed access to runtime configuration.
package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values and scales them into durations.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
//
// Missing keys resolve to the zero value of the requested type.
type Config interface {
	io.Closer
	TimeConfig

	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetBinary decodes a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray splits a value stored as <element1>,<element2>,...
	// Blank elements are dropped.
	GetArray(key string) []string

	// GetMap parses a value stored as <key1>:<value1>,<key2>:<value2>,...
	GetMap(key string) map[string]string
}
