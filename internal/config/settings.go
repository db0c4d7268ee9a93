package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/nethop/internal/errdef"
	"github.com/unkn0wn-root/nethop/internal/theme"
)

const (
	PagerAuto   = "auto"
	PagerAlways = "always"
	PagerNever  = "never"

	RootModeReplace = "replace"
	RootModeAppend  = "append"

	DefaultHistoryEntries = 200
)

var settingsFiles = []string{"settings.toml", "settings.yaml", "settings.yml"}

type Settings struct {
	Output  OutputSettings   `toml:"output" yaml:"output"`
	Colors  theme.ColorsSpec `toml:"colors" yaml:"colors"`
	TLS     TLSSettings      `toml:"tls" yaml:"tls"`
	History HistorySettings  `toml:"history" yaml:"history"`
}

type OutputSettings struct {
	Color     *bool  `toml:"color" yaml:"color"`
	Pager     string `toml:"pager" yaml:"pager"`
	Highlight *bool  `toml:"highlight" yaml:"highlight"`
}

type TLSSettings struct {
	RootCAs    []string `toml:"root_cas" yaml:"root_cas"`
	RootMode   string   `toml:"root_mode" yaml:"root_mode"`
	ClientCert string   `toml:"client_cert" yaml:"client_cert"`
	ClientKey  string   `toml:"client_key" yaml:"client_key"`
	Insecure   bool     `toml:"insecure" yaml:"insecure"`
}

type HistorySettings struct {
	Enabled    *bool `toml:"enabled" yaml:"enabled"`
	MaxEntries int   `toml:"max_entries" yaml:"max_entries"`
}

func DefaultSettings() Settings {
	return Settings{
		Output: OutputSettings{
			Color:     boolPtr(true),
			Pager:     PagerNever,
			Highlight: boolPtr(true),
		},
		TLS:     TLSSettings{RootMode: RootModeAppend},
		History: HistorySettings{Enabled: boolPtr(true), MaxEntries: DefaultHistoryEntries},
	}
}

func (o OutputSettings) ColorEnabled() bool     { return o.Color == nil || *o.Color }
func (o OutputSettings) HighlightEnabled() bool { return o.Highlight == nil || *o.Highlight }
func (h HistorySettings) IsEnabled() bool       { return h.Enabled == nil || *h.Enabled }

// LoadSettings reads the first settings file found in dir. TOML wins over
// YAML. A missing file yields the defaults and an empty path.
func LoadSettings(dir string) (Settings, string, error) {
	for _, name := range settingsFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return DefaultSettings(), path, errdef.Wrap(errdef.CodeConfig, err, "read %s", path)
		}
		settings, err := ParseSettings(data, filepath.Ext(name))
		if err != nil {
			return DefaultSettings(), path, errdef.Wrap(errdef.CodeConfig, err, "parse %s", path)
		}
		return settings, path, nil
	}
	return DefaultSettings(), "", nil
}

// ParseSettings decodes data over the defaults. ext selects the format.
func ParseSettings(data []byte, ext string) (Settings, error) {
	settings := DefaultSettings()
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(data, &settings)
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) > 0 {
			err = yaml.Unmarshal(data, &settings)
		}
	default:
		return settings, errdef.New(errdef.CodeConfig, "unsupported settings format %q", ext)
	}
	if err != nil {
		return settings, err
	}
	return settings, settings.normalise()
}

// ParsePager normalises a pager mode. Blank means never.
func ParsePager(mode string) (string, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "":
		return PagerNever, nil
	case PagerAuto, PagerAlways, PagerNever:
		return mode, nil
	default:
		return "", errdef.New(errdef.CodeConfig, "invalid pager mode %q (want auto, always or never)", mode)
	}
}

func (s *Settings) normalise() error {
	pager, err := ParsePager(s.Output.Pager)
	if err != nil {
		return errdef.New(errdef.CodeConfig, "invalid output.pager %q (want auto, always or never)", s.Output.Pager)
	}
	s.Output.Pager = pager

	s.TLS.RootMode = strings.ToLower(strings.TrimSpace(s.TLS.RootMode))
	switch s.TLS.RootMode {
	case "":
		s.TLS.RootMode = RootModeAppend
	case RootModeAppend, RootModeReplace:
	default:
		return errdef.New(errdef.CodeConfig, "invalid tls.root_mode %q (want append or replace)", s.TLS.RootMode)
	}

	if (s.TLS.ClientCert == "") != (s.TLS.ClientKey == "") {
		return errdef.New(errdef.CodeConfig, "tls.client_cert and tls.client_key must be set together")
	}

	if s.History.MaxEntries <= 0 {
		s.History.MaxEntries = DefaultHistoryEntries
	}
	return nil
}

func boolPtr(v bool) *bool {
	return &v
}
