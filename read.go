package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Settings mirrors the command line options so that a destination can be
// kept in a file. Deletion can only be confirmed on the command line.
type Settings struct {
	Path       string   `yaml:"-"`
	Account    string   `yaml:"account"`
	Region     string   `yaml:"region"`
	SLRegion   string   `yaml:"slregion"`
	Principal  string   `yaml:"principal"`
	Groups     []string `yaml:"groups"`
	GroupNames []string `yaml:"group_names"`
	Namespace  string   `yaml:"namespace"`
	Prefix     string   `yaml:"prefix"`
	Suffix     string   `yaml:"suffix"`
	NoFollow   *bool    `yaml:"nofollow"`
	Preopen    *bool    `yaml:"preopen"`
	Ignore     *bool    `yaml:"ignore"`
	Verbose    *bool    `yaml:"verbose"`
	Assets     string   `yaml:"assets"`
	Catalog    string   `yaml:"catalog"`
	Output     string   `yaml:"output"`
	Profile    string   `yaml:"profile"`
}

func newSettingsFinder() *Settings {
	return &Settings{}
}

func (s *Settings) locateIn(path string) *Settings {
	s.Path = path
	return s
}

func (s *Settings) load() (*Settings, error) {
	data := &Settings{Path: s.Path}

	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, "reading settings")
	}

	if err := yaml.UnmarshalStrict(b, data); err != nil {
		return nil, errors.Wrapf(err, "malformed settings file %s", s.Path)
	}

	return data, nil
}

func readBundle(path string) (Bundle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading asset bundle")
	}
	return decodeBundle(b)
}

// readBundleOrEmpty starts a fresh bundle when the file does not exist yet.
func readBundleOrEmpty(path string) (Bundle, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return newBundle(), nil
	}
	return readBundle(path)
}

func writeBundle(path string, b Bundle) error {
	data, err := encodeJSON(b, true)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "writing asset bundle")
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, "reading %s", src)
	}
	return errors.Wrapf(os.WriteFile(dst, b, 0o644), "writing %s", dst)
}
