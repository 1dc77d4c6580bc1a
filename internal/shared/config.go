package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"destiny_blue/internal/stay"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	CORSOrigins []string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	OwnerRezBase  string
	OwnerRezUser  string
	OwnerRezToken string
	OwnerRezRPS   int

	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIMaxTokens   int
	OpenAITemperature float32

	DiscordBotToken   string
	DiscordChannelID  string
	DiscordWebhookURL string
	DiscordPublicKey  string

	ResendKey      string
	AlertEmailFrom string
	AlertEmailTo   string

	GoogleSAEmail    string
	GooglePrivateKey string
	GoogleSheetID    string
	SheetRange       string

	BookingBaseURL string
	LinkVariants   []string
	Units          []stay.Unit
	DefaultUnit    string
	BusinessTZ     string

	Workers      int
	HistoryLimit int
	CacheTTL     time.Duration
	DraftTTL     time.Duration
}

// DefaultUnits are the two condos at Pelican Beach Resort.
var DefaultUnits = []stay.Unit{
	{Label: "Unit 707", PropertyID: "293722", Aliases: []string{"707", "unit 707", "7th floor"}},
	{Label: "Unit 1006", PropertyID: "410894", Aliases: []string{"1006", "unit 1006", "10th floor"}},
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		CORSOrigins: splitList(env("CORS_ORIGINS", "")),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", ""),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),

		OwnerRezBase:  env("OWNERREZ_BASE_URL", "https://api.ownerrez.com"),
		OwnerRezUser:  env("OWNERREZ_USER", ""),
		OwnerRezToken: env("OWNERREZ_API_TOKEN", ""),
		OwnerRezRPS:   atoi("OWNERREZ_RPS", 5),

		OpenAIKey:         env("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     env("OPENAI_BASE_URL", ""),
		OpenAIModel:       env("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIMaxTokens:   atoi("OPENAI_MAX_TOKENS", 300),
		OpenAITemperature: float32(atof("OPENAI_TEMPERATURE", 0.7)),

		DiscordBotToken:   env("DISCORD_BOT_TOKEN", ""),
		DiscordChannelID:  env("DISCORD_CHANNEL_ID", ""),
		DiscordWebhookURL: env("DISCORD_WEBHOOK_URL", ""),
		DiscordPublicKey:  env("DISCORD_PUBLIC_KEY", ""),

		ResendKey:      env("RESEND_API_KEY", ""),
		AlertEmailFrom: env("ALERT_EMAIL_FROM", ""),
		AlertEmailTo:   env("ALERT_EMAIL_TO", ""),

		GoogleSAEmail:    env("GOOGLE_SERVICE_ACCOUNT_EMAIL", ""),
		GooglePrivateKey: env("GOOGLE_PRIVATE_KEY", ""),
		GoogleSheetID:    env("GOOGLE_SHEET_ID", ""),
		SheetRange:       env("GOOGLE_SHEET_RANGE", "Sheet1!A1"),

		BookingBaseURL: env("BOOKING_BASE_URL", "https://www.destincondogetaways.com/book"),
		LinkVariants:   splitList(env("BOOKING_LINK_VARIANTS", "ownerrez,direct")),
		DefaultUnit:    env("DEFAULT_UNIT", ""),
		BusinessTZ:     env("BUSINESS_TZ", "America/Chicago"),

		Workers:      atoi("AVAILABILITY_WORKERS", 4),
		HistoryLimit: atoi("OWNERREZ_HISTORY_LIMIT", 20),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		DraftTTL:     time.Duration(atoi("DRAFT_TTL_SECONDS", 86400)) * time.Second,
	}

	c.Units = DefaultUnits
	if path := os.Getenv("UNITS_FILE"); path != "" {
		units, err := LoadUnits(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("unit table not loaded; using built-in units")
		} else {
			c.Units = units
		}
	}
	if c.DefaultUnit == "" && len(c.Units) > 0 {
		c.DefaultUnit = c.Units[0].Label
	}

	if c.OpenAIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is empty")
	}
	if c.OwnerRezToken == "" {
		log.Warn().Msg("OWNERREZ_API_TOKEN is empty")
	}
	return c
}

type unitsFile struct {
	Units []stay.Unit `yaml:"units"`
}

// LoadUnits reads the unit alias table from a YAML file:
//
//	units:
//	  - label: Unit 707
//	    property_id: "293722"
//	    aliases: ["707", "seventh floor"]
func LoadUnits(path string) ([]stay.Unit, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f unitsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Units) == 0 {
		return nil, fmt.Errorf("%s: no units", path)
	}
	for i, u := range f.Units {
		if u.Label == "" || u.PropertyID == "" {
			return nil, fmt.Errorf("%s: unit %d needs label and property_id", path, i)
		}
	}
	return f.Units, nil
}

// Location returns the business time zone, UTC when it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BusinessTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
