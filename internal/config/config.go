// Package config loads the engine's runtime configuration from a .env
// file and the OS environment, following the same godotenv-plus-os.Getenv
// shape as the teacher's config/loader.go, generalized to the full
// environment-variable table in the specification.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mode is the paper/live trading mode.
type Mode string

const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// Config holds every environment-driven setting the engine needs.
type Config struct {
	Mode              Mode
	EnableLiveTrading bool
	InitialBalance    float64

	LeverageDefault int
	LeverageMin     int
	LeverageMax     int

	StopLossROI   float64
	TakeProfitROI float64

	BreakEvenActivation float64
	BreakEvenBuffer     float64

	TrailingActivation float64
	TrailingDistance   float64
	TrailingStep       float64

	MaxOpenPositions     int
	MaxPositionSizeUSD   float64
	MaxDailyDrawdown     float64
	MaxConsecutiveLosses int
	MaxHourlyTrades      int

	BurstRateLimit time.Duration
	LossCooldown   time.Duration

	SignalMinScore     float64
	SignalStrongScore  float64
	SignalExtremeScore float64
	SignalMinConfidence float64
	SignalMinIndicators int
	SignalCooldown      time.Duration

	MTFEnabled       bool
	MTFLTFTimeframes []string
	MTFHTFTimeframes []string

	VenueAPIKey      string
	VenueAPISecret   string
	VenuePassphrase  string
	VenueKeyVersion  string

	Port          int
	TelemetryPort int
}

// Load reads .env (if present) then the OS environment, mirroring the
// teacher's godotenv.Load()-then-os.Getenv pattern; a missing .env file is
// a warning, not a fatal error, for parity with production environments
// that inject variables directly.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on OS environment variables")
	}

	c := &Config{
		Mode:              Mode(strings.ToLower(getEnv("MODE", string(ModePaper)))),
		EnableLiveTrading: getBool("ENABLE_LIVE_TRADING", false),
		InitialBalance:    getFloat("INITIAL_BALANCE", 10000.0),

		LeverageDefault: getInt("LEVERAGE_DEFAULT", 10),
		LeverageMin:     getInt("LEVERAGE_MIN", 3),
		LeverageMax:     getInt("LEVERAGE_MAX", 20),

		StopLossROI:   getFloat("STOP_LOSS_ROI", 10.0),
		TakeProfitROI: getFloat("TAKE_PROFIT_ROI", 30.0),

		BreakEvenActivation: getFloat("BREAK_EVEN_ACTIVATION", 20.0),
		BreakEvenBuffer:     getFloat("BREAK_EVEN_BUFFER", 0.2),

		TrailingActivation: getFloat("TRAILING_ACTIVATION", 25.0),
		TrailingDistance:   getFloat("TRAILING_DISTANCE", 8.0),
		TrailingStep:       getFloat("TRAILING_STEP", 5.0),

		MaxOpenPositions:     getInt("MAX_OPEN_POSITIONS", 3),
		MaxPositionSizeUSD:   getFloat("MAX_POSITION_SIZE_USD", 2000.0),
		MaxDailyDrawdown:     getFloat("MAX_DAILY_DRAWDOWN", 5.0),
		MaxConsecutiveLosses: getInt("MAX_CONSECUTIVE_LOSSES", 4),
		MaxHourlyTrades:      getInt("MAX_HOURLY_TRADES", 12),

		BurstRateLimit: getMillis("BURST_RATE_LIMIT_MS", 30_000),
		LossCooldown:   getMillis("LOSS_COOLDOWN_MS", 120_000),

		SignalMinScore:      getFloat("SIGNAL_MIN_SCORE", 40.0),
		SignalStrongScore:   getFloat("SIGNAL_STRONG_SCORE", 65.0),
		SignalExtremeScore:  getFloat("SIGNAL_EXTREME_SCORE", 85.0),
		SignalMinConfidence: getFloat("SIGNAL_MIN_CONFIDENCE", 55.0),
		SignalMinIndicators: getInt("SIGNAL_MIN_INDICATORS", 2),
		SignalCooldown:      getMillis("SIGNAL_COOLDOWN_MS", 60_000),

		MTFEnabled:       getBool("MTF_ENABLED", true),
		MTFLTFTimeframes: getList("MTF_LTF_TIMEFRAMES", []string{"5m", "15m"}),
		MTFHTFTimeframes: getList("MTF_HTF_TIMEFRAMES", []string{"1h", "4h"}),

		VenueAPIKey:     getEnv("KUCOIN_API_KEY", ""),
		VenueAPISecret:  getEnv("KUCOIN_API_SECRET", ""),
		VenuePassphrase: getEnv("KUCOIN_API_PASSPHRASE", ""),
		VenueKeyVersion: getEnv("KUCOIN_API_KEY_VERSION", "2"),

		Port:          getInt("PORT", 8090),
		TelemetryPort: getInt("TELEMETRY_PORT", 8091),
	}

	if c.Mode == ModeLive && !c.EnableLiveTrading {
		log.Println("MODE=live requested but ENABLE_LIVE_TRADING is not set; demoting to paper mode")
		c.Mode = ModePaper
	}

	return c
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getMillis(key string, fallbackMs int) time.Duration {
	return time.Duration(getInt(key, fallbackMs)) * time.Millisecond
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
