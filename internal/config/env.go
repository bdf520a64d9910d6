package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// env reads typed values from a getenv function and remembers every
// problem, so Load can report all of them at once.
type env struct {
	getenv  func(string) string
	missing []string
	invalid []string
}

func (e *env) lookup(key string) string {
	return strings.TrimSpace(e.getenv(key))
}

// required returns the value of key, recording it as missing when empty.
func (e *env) required(key string) string {
	value := e.lookup(key)
	if value == "" {
		e.missing = append(e.missing, key)
	}
	return value
}

// String gets environment variable as string with default value.
func (e *env) String(key, defaultValue string) string {
	if value := e.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

// Int gets environment variable as int with default value.
func (e *env) Int(key string, defaultValue int) int {
	value := e.lookup(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.invalid = append(e.invalid, fmt.Sprintf("%s=%q is not an integer", key, value))
		return defaultValue
	}
	return n
}

// Float gets environment variable as float64 with default value.
func (e *env) Float(key string, defaultValue float64) float64 {
	value := e.lookup(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		e.invalid = append(e.invalid, fmt.Sprintf("%s=%q is not a number", key, value))
		return defaultValue
	}
	return f
}

// Bool gets environment variable as bool with default value.
func (e *env) Bool(key string, defaultValue bool) bool {
	value := e.lookup(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.invalid = append(e.invalid, fmt.Sprintf("%s=%q is not a boolean", key, value))
		return defaultValue
	}
	return b
}

// Duration gets environment variable as duration with default value.
func (e *env) Duration(key string, defaultValue time.Duration) time.Duration {
	value := e.lookup(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.invalid = append(e.invalid, fmt.Sprintf("%s=%q is not a duration", key, value))
		return defaultValue
	}
	return d
}

func (e *env) check(ok bool, format string, args ...any) {
	if !ok {
		e.invalid = append(e.invalid, fmt.Sprintf(format, args...))
	}
}
