package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Store persists settings to the user configuration file.
type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, homeDir string) *Store {
	return &Store{fs: fs, path: UserConfigPath(homeDir)}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Save writes setting to the settings file, keeping every other key intact.
func (s *Store) Save(setting Setting) error {
	if err := setting.validate(); err != nil {
		return fmt.Errorf("invalid %s: %w", setting.Key(), err)
	}
	v, err := s.read()
	if err != nil {
		return err
	}
	v.Set(setting.Key(), setting.Value())
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", s.path, err)
	}
	return nil
}

// Values returns the persisted keys and their values.
func (s *Store) Values() (map[string]any, error) {
	v, err := s.read()
	if err != nil {
		return nil, err
	}
	return v.AllSettings(), nil
}

func (s *Store) read() (*viper.Viper, error) {
	v := viper.New()
	v.SetFs(s.fs)
	v.SetConfigType("yaml")
	v.SetConfigFile(s.path)
	v.SetConfigPermissions(0o600)
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to check config %s: %w", s.path, err)
	}
	if exists {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", s.path, err)
		}
	}
	return v, nil
}
