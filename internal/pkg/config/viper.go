package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Viper serves reads from an immutable snapshot. File-backed instances
// replace the snapshot when the file changes; a file that fails to parse
// keeps the previous one.
type Viper struct {
	snap    atomic.Pointer[viper.Viper]
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewViper reads the file at path, typed by its extension, and watches its
// directory for changes until Close.
func NewViper(path string) (*Viper, error) {
	path = filepath.Clean(path)

	v, err := readFile(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		return nil, errors.Join(err, w.Close())
	}

	vc := &Viper{watcher: w, done: make(chan struct{})}
	vc.snap.Store(v)
	go vc.watch(path)

	return vc, nil
}

// NewViperFromBytes parses data as configType ("yaml", "json", ...).
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newBase()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	vc := &Viper{}
	vc.snap.Store(v)
	return vc, nil
}

// newBase lets environment variables override file values, "." becoming
// "_" (DATABASE_URL overrides database.url).
func newBase() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func readFile(path string) (*viper.Viper, error) {
	v := newBase()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

func (vc *Viper) watch(path string) {
	defer close(vc.done)

	for {
		select {
		case ev, ok := <-vc.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}

			v, err := readFile(path)
			if err != nil {
				slog.Error("config reload failed", "path", path, "error", err)
				continue
			}
			vc.snap.Store(v)
			slog.Info("config reloaded", "path", path)

		case err, ok := <-vc.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "path", path, "error", err)
		}
	}
}

func (vc *Viper) get() *viper.Viper { return vc.snap.Load() }

func (vc *Viper) GetInt(key string) int              { return vc.get().GetInt(key) }
func (vc *Viper) GetInt32(key string) int32          { return vc.get().GetInt32(key) }
func (vc *Viper) GetInt64(key string) int64          { return vc.get().GetInt64(key) }
func (vc *Viper) GetUint(key string) uint            { return vc.get().GetUint(key) }
func (vc *Viper) GetUint16(key string) uint16        { return uint16(vc.get().GetUint(key)) }
func (vc *Viper) GetUint32(key string) uint32        { return vc.get().GetUint32(key) }
func (vc *Viper) GetUint64(key string) uint64        { return vc.get().GetUint64(key) }
func (vc *Viper) GetFloat32(key string) float32      { return float32(vc.get().GetFloat64(key)) }
func (vc *Viper) GetFloat64(key string) float64      { return vc.get().GetFloat64(key) }
func (vc *Viper) GetBool(key string) bool            { return vc.get().GetBool(key) }
func (vc *Viper) GetString(key string) string        { return vc.get().GetString(key) }
func (vc *Viper) GetSecond(key string) time.Duration { return vc.scaled(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration { return vc.scaled(key, time.Minute) }
func (vc *Viper) GetHour(key string) time.Duration   { return vc.scaled(key, time.Hour) }
func (vc *Viper) GetDay(key string) time.Duration    { return vc.scaled(key, 24*time.Hour) }

func (vc *Viper) scaled(key string, unit time.Duration) time.Duration {
	return time.Duration(vc.get().GetInt64(key)) * unit
}

// GetBinary returns nil when the value is not valid base64.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.get().GetString(key))
	if err != nil {
		return nil
	}
	return data
}

// GetArray trims every element and drops empty ones.
func (vc *Viper) GetArray(key string) []string {
	v := vc.get()

	var raw []string
	switch v.Get(key).(type) {
	case nil:
		return []string{}
	case []any, []string:
		raw = v.GetStringSlice(key)
	default:
		raw = strings.Split(v.GetString(key), ",")
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// GetMap splits each array element on its first ":". Elements without one
// are skipped.
func (vc *Viper) GetMap(key string) map[string]string {
	m := make(map[string]string)
	for _, pair := range vc.GetArray(key) {
		if k, v, ok := strings.Cut(pair, ":"); ok {
			m[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return m
}

// Close stops the file watcher. In-memory configs have nothing to release.
func (vc *Viper) Close() error {
	if vc.watcher == nil {
		return nil
	}
	err := vc.watcher.Close()
	<-vc.done
	return err
}
