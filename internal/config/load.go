package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
)

// Parse decodes TOML on top of the defaults, so omitted keys keep their
// default values, and returns the clamped result.
func Parse(data []byte) (Settings, error) {
	s := Defaults()
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	return sanitize(s), nil
}

// Load reads a TOML file and applies it.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	Apply(s)
	return s, nil
}

// Encode renders s as TOML.
func Encode(s Settings) ([]byte, error) {
	return toml.Marshal(s)
}

// Watch reloads path whenever it is written and calls onChange with the
// result. Parse failures are reported through onChange and leave the current
// settings untouched. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(Settings, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer w.Close()

	// editors often replace the file, so watch the directory
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != abs || e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			s, err := Load(abs)
			onChange(s, err)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			onChange(Settings{}, err)
		}
	}
}
