package indicator

import (
	"errors"
	"fmt"
)

const (
	// TenkanPeriod is the default tenkan-sen lookback.
	TenkanPeriod = 9
	// KijunPeriod is the default kijun-sen lookback.
	KijunPeriod = 26
	// SenkouPeriod is the default senkou span b lookback.
	SenkouPeriod = 52
	// ChikouPeriod is the default chikou span displacement.
	ChikouPeriod = 26
	// RSIPeriod is the default rsi lookback.
	RSIPeriod = 14
	// VolumePeriod is the default lookback of the volume moving average.
	VolumePeriod = 20
	// lookbackMargin is the number of extra candles requested on top of the required periods.
	lookbackMargin = 8
)

// Config represents the indicator periods.
type Config struct {
	// TenkanPeriod is the tenkan-sen lookback.
	TenkanPeriod int
	// KijunPeriod is the kijun-sen lookback.
	KijunPeriod int
	// SenkouPeriod is the senkou span b lookback.
	SenkouPeriod int
	// ChikouPeriod is the number of periods the chikou span is compared against.
	ChikouPeriod int
	// RSIPeriod is the rsi lookback.
	RSIPeriod int
	// VolumePeriod is the lookback of the volume moving average.
	VolumePeriod int
}

// DefaultConfig returns the conventional 9/26/52/26 ichimoku periods with a 14 period rsi.
func DefaultConfig() Config {
	return Config{
		TenkanPeriod: TenkanPeriod,
		KijunPeriod:  KijunPeriod,
		SenkouPeriod: SenkouPeriod,
		ChikouPeriod: ChikouPeriod,
		RSIPeriod:    RSIPeriod,
		VolumePeriod: VolumePeriod,
	}
}

// WithDefaults returns a copy of the config with unset periods replaced by their defaults.
func (cfg Config) WithDefaults() Config {
	def := DefaultConfig()
	if cfg.TenkanPeriod == 0 {
		cfg.TenkanPeriod = def.TenkanPeriod
	}
	if cfg.KijunPeriod == 0 {
		cfg.KijunPeriod = def.KijunPeriod
	}
	if cfg.SenkouPeriod == 0 {
		cfg.SenkouPeriod = def.SenkouPeriod
	}
	if cfg.ChikouPeriod == 0 {
		cfg.ChikouPeriod = def.ChikouPeriod
	}
	if cfg.RSIPeriod == 0 {
		cfg.RSIPeriod = def.RSIPeriod
	}
	if cfg.VolumePeriod == 0 {
		cfg.VolumePeriod = def.VolumePeriod
	}

	return cfg
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	periods := []struct {
		name  string
		value int
	}{
		{"tenkan", cfg.TenkanPeriod},
		{"kijun", cfg.KijunPeriod},
		{"senkou", cfg.SenkouPeriod},
		{"chikou", cfg.ChikouPeriod},
		{"rsi", cfg.RSIPeriod},
		{"volume", cfg.VolumePeriod},
	}

	for _, period := range periods {
		if period.value <= 0 {
			errs = errors.Join(errs, fmt.Errorf("%s period must be positive, got %d", period.name, period.value))
		}
	}

	if cfg.TenkanPeriod > cfg.KijunPeriod {
		errs = errors.Join(errs, fmt.Errorf("tenkan period (%d) cannot exceed kijun period (%d)",
			cfg.TenkanPeriod, cfg.KijunPeriod))
	}
	if cfg.KijunPeriod > cfg.SenkouPeriod {
		errs = errors.Join(errs, fmt.Errorf("kijun period (%d) cannot exceed senkou period (%d)",
			cfg.KijunPeriod, cfg.SenkouPeriod))
	}

	return errs
}

// MinCandles returns the minimum number of candles required for a single point evaluation.
func (cfg *Config) MinCandles() int {
	return max(cfg.SenkouPeriod, cfg.KijunPeriod, cfg.TenkanPeriod, cfg.ChikouPeriod+1, cfg.RSIPeriod+1)
}

// Lookback returns the number of candles to request from a market data source.
func (cfg *Config) Lookback() int {
	return cfg.SenkouPeriod + cfg.ChikouPeriod + cfg.RSIPeriod + lookbackMargin
}
