package cohort

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"roster/internal/domain/shared"
)

//go:embed profiles.yaml
var defaultProfilesYAML []byte

// PathStage groups discipleship path levels for the distribution report.
type PathStage struct {
	Name   string
	Levels []string
}

// Config is the parsed cohort configuration source.
type Config struct {
	Profiles   []Profile
	PathStages []PathStage
}

type yamlConfig struct {
	Profiles   []yamlProfile   `yaml:"profiles"`
	PathStages []yamlPathStage `yaml:"path_stages"`
}

type yamlProfile struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	DisplayName      string   `yaml:"display_name"`
	Subtitle         string   `yaml:"subtitle"`
	MinAge           *int     `yaml:"min_age"`
	MaxAge           *int     `yaml:"max_age"`
	MemberLabel      string   `yaml:"member_label"`
	LeaderLabel      string   `yaml:"leader_label"`
	SystemName       string   `yaml:"system_name"`
	Admin            bool     `yaml:"admin"`
	ShowPathLevels   bool     `yaml:"show_path_levels"`
	PINHash          string   `yaml:"pin_hash"`
	ReportRecipients []string `yaml:"report_recipients"`
}

type yamlPathStage struct {
	Name   string   `yaml:"name"`
	Levels []string `yaml:"levels"`
}

// LoadConfig parses a YAML cohort configuration.
// PRE: r yields a YAML document with a profiles list
// POST: Returns ErrConfiguration for unparsable documents or profiles missing an age bound
func LoadConfig(r io.Reader) (Config, error) {
	var raw yamlConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return Config{}, &shared.DomainError{Domain: "cohort", Op: "LoadConfig", Kind: shared.ErrConfiguration, Message: "cannot parse profiles", Err: err}
	}

	cfg := Config{}
	for i, p := range raw.Profiles {
		if p.MinAge == nil || p.MaxAge == nil {
			return Config{}, shared.Misconfigured("cohort", "LoadConfig", "profile #%d (%q) needs min_age and max_age", i+1, p.ID)
		}
		cfg.Profiles = append(cfg.Profiles, Profile{
			ID:               strings.TrimSpace(p.ID),
			Name:             p.Name,
			DisplayName:      p.DisplayName,
			Subtitle:         p.Subtitle,
			Interval:         Interval{Min: *p.MinAge, Max: *p.MaxAge},
			MemberLabel:      p.MemberLabel,
			LeaderLabel:      p.LeaderLabel,
			SystemName:       p.SystemName,
			Admin:            p.Admin,
			ShowPathLevels:   p.ShowPathLevels,
			PINHash:          p.PINHash,
			ReportRecipients: p.ReportRecipients,
		})
	}
	for _, s := range raw.PathStages {
		cfg.PathStages = append(cfg.PathStages, PathStage{Name: s.Name, Levels: s.Levels})
	}
	return cfg, nil
}

// LoadConfigFile parses the YAML file at path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, &shared.DomainError{Domain: "cohort", Op: "LoadConfigFile", Kind: shared.ErrConfiguration, Message: fmt.Sprintf("cannot open %s", path), Err: err}
	}
	defer f.Close()
	return LoadConfig(f)
}

// DefaultConfig returns the embedded five-profile configuration.
func DefaultConfig() Config {
	cfg, err := LoadConfig(bytes.NewReader(defaultProfilesYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded profiles.yaml is invalid: %v", err))
	}
	return cfg
}

// Load reads the configuration at path, or the embedded default when path is
// empty, and builds the registry. Any error is a configuration error.
func Load(path string) (*Registry, Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadConfigFile(path); err != nil {
			return nil, Config{}, err
		}
	}
	reg, err := NewRegistry(cfg.Profiles)
	if err != nil {
		return nil, Config{}, err
	}
	return reg, cfg, nil
}
