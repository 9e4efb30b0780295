package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Location of the API key inside the INI file.
const (
	DefaultPath  = "config.ini"
	APISection   = "API"
	APIKeyOption = "API Key"
)

// ConfigurationError reports a configuration store that cannot be read or
// does not hold the API key.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Store reads and writes the persisted API key in an INI file with a
// section/option layout:
//
//	[API]
//	api key = "..."
//
// Option names are matched case-insensitively.
type Store struct {
	path string
}

// NewStore creates a store backed by path. An empty path selects DefaultPath.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

var loadOptions = ini.LoadOptions{InsensitiveKeys: true}

// APIKey returns the stored key with surrounding quotes removed.
func (s *Store) APIKey() (string, error) {
	f, err := ini.LoadSources(loadOptions, s.path)
	if err != nil {
		return "", &ConfigurationError{Path: s.path, Err: err}
	}
	sec, err := f.GetSection(APISection)
	if err != nil {
		return "", &ConfigurationError{Path: s.path, Err: err}
	}
	key, err := sec.GetKey(APIKeyOption)
	if err != nil {
		return "", &ConfigurationError{Path: s.path, Err: err}
	}
	value := strings.Trim(strings.TrimSpace(key.String()), `"`)
	if value == "" {
		return "", &ConfigurationError{Path: s.path, Err: fmt.Errorf("option %s:%s is empty", APISection, APIKeyOption)}
	}
	return value, nil
}

// SetAPIKey stores value and returns the previous key ("" if none).
// The file and section are created when missing; other sections and
// options are preserved.
func (s *Store) SetAPIKey(value string) (string, error) {
	opts := loadOptions
	opts.Loose = true
	f, err := ini.LoadSources(opts, s.path)
	if err != nil {
		return "", &ConfigurationError{Path: s.path, Err: err}
	}

	key := f.Section(APISection).Key(APIKeyOption)
	old := key.String()
	key.SetValue(value)

	if err := f.SaveTo(s.path); err != nil {
		return old, &ConfigurationError{Path: s.path, Err: err}
	}
	return old, nil
}
