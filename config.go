package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the configuration struct for the service.
type Config struct {
	// Markets represents the scanned markets, discovered when empty.
	Markets []string
	// QuoteAsset is the quote asset of discovered markets.
	QuoteAsset string
	// MaxMarkets caps the number of discovered markets.
	MaxMarkets int
	// BinanceAPIKey is the binance api key.
	BinanceAPIKey string
	// BinanceAPISecret is the binance api secret.
	BinanceAPISecret string
	// RequestsPerSecond is the maximum outbound request rate to binance.
	RequestsPerSecond float64
	// MarketsPerSecond paces scans across markets.
	MarketsPerSecond float64
	// ScanIntervalMinutes is the number of minutes between scheduled scans.
	ScanIntervalMinutes int
	// DBEndpoint is the database endpoint.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string
	// HistoricDataFilepath is the filepath to historic market data for offline scans.
	HistoricDataFilepath string
	// TenkanPeriod is the tenkan-sen lookback.
	TenkanPeriod int
	// KijunPeriod is the kijun-sen lookback.
	KijunPeriod int
	// SenkouPeriod is the senkou span b lookback.
	SenkouPeriod int
	// ChikouPeriod is the chikou span displacement.
	ChikouPeriod int
	// RSIPeriod is the rsi lookback.
	RSIPeriod int

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.MaxMarkets < 0 {
		errs = errors.Join(errs, fmt.Errorf("max markets cannot be negative"))
	}
	if cfg.RequestsPerSecond < 0 {
		errs = errors.Join(errs, fmt.Errorf("requests per second cannot be negative"))
	}
	if cfg.MarketsPerSecond < 0 {
		errs = errors.Join(errs, fmt.Errorf("markets per second cannot be negative"))
	}
	if cfg.ScanIntervalMinutes < 0 {
		errs = errors.Join(errs, fmt.Errorf("scan interval minutes cannot be negative"))
	}
	if cfg.DBEndpoint == "" && (cfg.DBUser != "" || cfg.DBPass != "") {
		errs = errors.Join(errs, fmt.Errorf("database credentials provided without an endpoint"))
	}

	periods := []struct {
		name  string
		value int
	}{
		{"tenkan", cfg.TenkanPeriod},
		{"kijun", cfg.KijunPeriod},
		{"senkou", cfg.SenkouPeriod},
		{"chikou", cfg.ChikouPeriod},
		{"rsi", cfg.RSIPeriod},
	}
	for _, period := range periods {
		if period.value < 0 {
			errs = errors.Join(errs, fmt.Errorf("%s period cannot be negative", period.name))
		}
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		var def float64
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"markets", &cfg.Markets, "the scanned markets, discovered when empty"},
		{"quoteasset", &cfg.QuoteAsset, "the quote asset of discovered markets"},
		{"maxmarkets", &cfg.MaxMarkets, "the maximum number of discovered markets"},
		{"binanceapikey", &cfg.BinanceAPIKey, "the binance api key"},
		{"binanceapisecret", &cfg.BinanceAPISecret, "the binance api secret"},
		{"requestspersecond", &cfg.RequestsPerSecond, "the maximum binance request rate"},
		{"marketspersecond", &cfg.MarketsPerSecond, "the number of markets scanned per second"},
		{"scanintervalminutes", &cfg.ScanIntervalMinutes, "the minutes between scheduled scans"},
		{"dbendpoint", &cfg.DBEndpoint, "the database endpoint"},
		{"dbuser", &cfg.DBUser, "the database user"},
		{"dbpass", &cfg.DBPass, "the database user pass"},
		{"historicdatafilepath", &cfg.HistoricDataFilepath, "the historic data filepath for offline scans"},
		{"tenkanperiod", &cfg.TenkanPeriod, "the tenkan-sen lookback"},
		{"kijunperiod", &cfg.KijunPeriod, "the kijun-sen lookback"},
		{"senkouperiod", &cfg.SenkouPeriod, "the senkou span b lookback"},
		{"chikouperiod", &cfg.ChikouPeriod, "the chikou span displacement"},
		{"rsiperiod", &cfg.RSIPeriod, "the rsi lookback"},
	}

	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
