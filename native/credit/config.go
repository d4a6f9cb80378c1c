package credit

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config captures the governance-supplied parameters for the credit module.
// Durations are unix seconds; rates are annual basis points.
type Config struct {
	// GracePeriodSeconds is the window after an obligation's due date during
	// which no penalty accrues.
	GracePeriodSeconds uint64 `toml:"GracePeriodSeconds"`
	// DelinquencySeconds is the window after grace before a borrower defaults.
	DelinquencySeconds uint64 `toml:"DelinquencySeconds"`
	// CycleDurationSeconds is the minimum spacing between cycle closes.
	CycleDurationSeconds uint64 `toml:"CycleDurationSeconds"`
	// PenaltyRateBps is the extra annual rate applied while a borrower is
	// delinquent or defaulted.
	PenaltyRateBps uint64 `toml:"PenaltyRateBps"`
	// Rate parameterises the default utilisation curve used when no explicit
	// rate model is wired.
	Rate RateCurveConfig `toml:"rate"`
}

// RateCurveConfig mirrors the kinked rate model parameters as decimals.
type RateCurveConfig struct {
	BaseRate float64 `toml:"BaseRate"`
	Slope1   float64 `toml:"Slope1"`
	Slope2   float64 `toml:"Slope2"`
	Kink     float64 `toml:"Kink"`
}

const (
	day  = 86_400
	week = 7 * day
)

// DefaultConfig returns the baseline parameters used when no config file is
// supplied: weekly grace, thirty-day delinquency window, monthly cycles and a
// 5% annual penalty.
func DefaultConfig() Config {
	return Config{
		GracePeriodSeconds:   week,
		DelinquencySeconds:   30 * day,
		CycleDurationSeconds: 30 * day,
		PenaltyRateBps:       500,
		Rate: RateCurveConfig{
			BaseRate: 0.02,
			Slope1:   0.15,
			Slope2:   0.6,
			Kink:     0.8,
		},
	}
}

// LoadConfig reads the module configuration from a TOML file. Unknown keys
// are rejected so typos fail loudly instead of silently reverting a
// parameter to its default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config file %s contains unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects parameter combinations the status classifier cannot order.
func (c Config) Validate() error {
	if c.CycleDurationSeconds == 0 {
		return fmt.Errorf("credit config: cycle duration must be positive")
	}
	if c.GracePeriodSeconds+c.DelinquencySeconds >= maxCompoundSeconds {
		return fmt.Errorf("credit config: grace plus delinquency windows exceed the compounding cap")
	}
	return nil
}

// RateModel materialises the configured default curve.
func (c Config) RateModel() RateModel {
	return NewKinkedRateModel(c.Rate.BaseRate, c.Rate.Slope1, c.Rate.Slope2, c.Rate.Kink)
}
