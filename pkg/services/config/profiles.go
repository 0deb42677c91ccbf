package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"gopkg.in/ini.v1"
)

// Registry lists the profiles of an AWS shared config file.
type Registry interface {
	GetProfiles(ctx context.Context) ([]domain.ConfigProfile, error)
	GetProfile(ctx context.Context, name string) (domain.ConfigProfile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

// DefaultConfigPath honours AWS_CONFIG_FILE like the SDK does.
func DefaultConfigPath() string {
	if p := os.Getenv("AWS_CONFIG_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "config")
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]domain.ConfigProfile, error) {
	var profiles []domain.ConfigProfile
	for _, section := range cr.cfg.Sections() {
		name, ok := profileName(section.Name())
		if !ok || len(section.Keys()) == 0 {
			continue
		}
		profiles = append(profiles, toProfile(name, section))
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (domain.ConfigProfile, error) {
	sectionName := "profile " + name
	if name == "default" {
		sectionName = "default"
	}
	section, err := cr.cfg.GetSection(sectionName)
	if err != nil {
		return domain.ConfigProfile{}, fmt.Errorf("profile %s not found", name)
	}
	return toProfile(name, section), nil
}

// profileName maps an ini section onto a profile name. sso-session and
// services sections are not profiles.
func profileName(section string) (string, bool) {
	if section == "default" {
		return section, true
	}
	name, ok := strings.CutPrefix(section, "profile ")
	return strings.TrimSpace(name), ok
}

func toProfile(name string, section *ini.Section) domain.ConfigProfile {
	p := domain.ConfigProfile{
		Name:   name,
		Type:   domain.ProfileTypeStatic,
		Region: section.Key("region").String(),
	}
	switch {
	case section.HasKey("sso_session"), section.HasKey("sso_start_url"):
		p.Type = domain.ProfileTypeSSO
	case section.HasKey("role_arn"):
		p.Type = domain.ProfileTypeAssumeRole
	}
	return p
}
