package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving durations stored as integers.
//
// Missing or malformed keys yield zero; callers apply their own defaults.
type TimeConfig interface {
	// GetMillisecond reads key as a count of milliseconds.
	GetMillisecond(key string) time.Duration
	// GetSecond reads key as a count of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads key as a count of minutes.
	GetMinute(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
// Implementations handle retrieval and type conversion and return the zero
// value for missing keys.
type Config interface {
	io.Closer
	TimeConfig

	// GetInt retrieves the value associated with key as an int.
	GetInt(key string) int
	// GetInt64 retrieves the value associated with key as an int64.
	GetInt64(key string) int64
	// GetFloat64 retrieves the value associated with key as a float64.
	GetFloat64(key string) float64
	// GetBool retrieves the value associated with key as a bool.
	GetBool(key string) bool
	// GetString retrieves the value associated with key as a string.
	GetString(key string) string

	// GetBinary retrieves the value associated with key decoded from base64.
	GetBinary(key string) []byte

	// GetArray retrieves the value associated with key as a slice of strings.
	// Both YAML sequences and "<element1>,<element2>" strings are accepted.
	GetArray(key string) []string
}
