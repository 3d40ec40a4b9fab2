package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SscSPs/partner_settlement_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// CurrentRulesVersion is the schema version LoadBusinessRules returns.
//
//	1: platform_markup_rate, min_reason_length
//	2: adds eligible_access_modes
const CurrentRulesVersion = 2

// ErrRulesNotFound is returned when the rules file does not exist.
var ErrRulesNotFound = errors.New("business rules file not found")

// BusinessRules are the tunable parameters of settlement. They are loaded
// once at startup and passed to the services that need them.
type BusinessRules struct {
	Version             int
	PlatformMarkupRate  decimal.Decimal
	MinReasonLength     int
	EligibleAccessModes []domain.AccessMode
}

type rulesFile struct {
	Version             int      `mapstructure:"version"`
	PlatformMarkupRate  string   `mapstructure:"platform_markup_rate"`
	MinReasonLength     int      `mapstructure:"min_reason_length"`
	EligibleAccessModes []string `mapstructure:"eligible_access_modes"`
}

// DefaultBusinessRules returns the rules a fresh installation is seeded with.
func DefaultBusinessRules() BusinessRules {
	return BusinessRules{
		Version:             CurrentRulesVersion,
		PlatformMarkupRate:  decimal.RequireFromString("0.02"),
		MinReasonLength:     10,
		EligibleAccessModes: []domain.AccessMode{domain.AccessModeAPI, domain.AccessModePAAS, domain.AccessModeLink},
	}
}

// Validate checks the rules are usable.
func (r BusinessRules) Validate() error {
	if r.PlatformMarkupRate.IsNegative() {
		return fmt.Errorf("platform_markup_rate must not be negative, got %s", r.PlatformMarkupRate)
	}
	if r.MinReasonLength < 1 {
		return fmt.Errorf("min_reason_length must be at least 1, got %d", r.MinReasonLength)
	}
	if len(r.EligibleAccessModes) == 0 {
		return errors.New("eligible_access_modes must list at least one mode")
	}
	for _, m := range r.EligibleAccessModes {
		if !m.IsValid() {
			return fmt.Errorf("unknown access mode %q in eligible_access_modes", m)
		}
	}
	return nil
}

// LoadBusinessRules reads the rules file and migrates older versions in
// memory. The second return value reports whether a migration was applied,
// so the caller can persist it with SaveBusinessRules.
func LoadBusinessRules(path string) (BusinessRules, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return BusinessRules{}, false, fmt.Errorf("%w: %s", ErrRulesNotFound, path)
		}
		return BusinessRules{}, false, fmt.Errorf("failed to stat business rules %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return BusinessRules{}, false, fmt.Errorf("failed to read business rules %s: %w", path, err)
	}
	var raw rulesFile
	if err := v.Unmarshal(&raw); err != nil {
		return BusinessRules{}, false, fmt.Errorf("failed to decode business rules %s: %w", path, err)
	}

	migrated, changed, err := migrateRules(raw)
	if err != nil {
		return BusinessRules{}, false, err
	}
	rules, err := migrated.toRules()
	if err != nil {
		return BusinessRules{}, false, err
	}
	return rules, changed, rules.Validate()
}

// migrateRules upgrades a rules file one version at a time.
func migrateRules(raw rulesFile) (rulesFile, bool, error) {
	if raw.Version == 0 {
		raw.Version = 1
	}
	if raw.Version > CurrentRulesVersion {
		return raw, false, fmt.Errorf("business rules version %d is newer than supported version %d", raw.Version, CurrentRulesVersion)
	}
	changed := false
	for raw.Version < CurrentRulesVersion {
		switch raw.Version {
		case 1:
			if len(raw.EligibleAccessModes) == 0 {
				for _, m := range DefaultBusinessRules().EligibleAccessModes {
					raw.EligibleAccessModes = append(raw.EligibleAccessModes, string(m))
				}
			}
		}
		raw.Version++
		changed = true
	}
	return raw, changed, nil
}

func (f rulesFile) toRules() (BusinessRules, error) {
	rate, err := decimal.NewFromString(f.PlatformMarkupRate)
	if err != nil {
		return BusinessRules{}, fmt.Errorf("invalid platform_markup_rate %q: %w", f.PlatformMarkupRate, err)
	}
	modes := make([]domain.AccessMode, 0, len(f.EligibleAccessModes))
	for _, m := range f.EligibleAccessModes {
		modes = append(modes, domain.AccessMode(m))
	}
	return BusinessRules{
		Version:             f.Version,
		PlatformMarkupRate:  rate,
		MinReasonLength:     f.MinReasonLength,
		EligibleAccessModes: modes,
	}, nil
}

// SaveBusinessRules writes rules to path as YAML, replacing any existing file.
func SaveBusinessRules(path string, rules BusinessRules) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	modes := make([]string, 0, len(rules.EligibleAccessModes))
	for _, m := range rules.EligibleAccessModes {
		modes = append(modes, string(m))
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("version", rules.Version)
	v.Set("platform_markup_rate", rules.PlatformMarkupRate.String())
	v.Set("min_reason_length", rules.MinReasonLength)
	v.Set("eligible_access_modes", modes)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write business rules %s: %w", path, err)
	}
	return nil
}

// SeedBusinessRules writes the defaults unless a file already exists.
// It reports whether a file was written.
func SeedBusinessRules(path string, overwrite bool) (bool, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := SaveBusinessRules(path, DefaultBusinessRules()); err != nil {
		return false, err
	}
	return true, nil
}
