// Package config exposes typed access to the YAML configuration file with
// environment overrides.
package config

import (
	"io"
	"time"
)

// Config is the read side of the application configuration. Missing keys
// return the zero value of the requested type.
type Config interface {
	io.Closer

	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
	GetFloat32(key string) float32
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetSecond, GetMinute, GetHour and GetDay read an integer and scale it
	// to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration

	// GetBinary decodes a base64 value.
	GetBinary(key string) []byte
	// GetArray reads a YAML list or a comma separated string.
	GetArray(key string) []string
	// GetMap reads "k1:v1,k2:v2" pairs.
	GetMap(key string) map[string]string
}
