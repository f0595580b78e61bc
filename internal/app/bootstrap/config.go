package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the pool service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string
	Project   string

	HTTPPort int

	DatabaseURL string
	RedisURL    string

	JWTPublicKeyPEM string

	VaultURL             string
	VaultAPIKey          string
	VaultTimeout         time.Duration
	VaultSignerKeyHex    string
	AllowEphemeralSigner bool

	CurrencyExponent int32
	RefundDelayDays  int
	NonProduction    bool
	MinContribution  decimal.Decimal
	RaceThreshold    decimal.Decimal
	BuilderPct       decimal.Decimal
	SubmitterPct     decimal.Decimal
	PlatformPct      decimal.Decimal
	ClaimTolerance   decimal.Decimal
	ClaimTTL         time.Duration

	VotingWindow      time.Duration
	RejectionCooldown time.Duration
	VoteQuorum        int
	TieOutcome        string

	MaxDBConns int32
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		Project  string `yaml:"project"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
		VaultURL    string `yaml:"vault_url"`
	} `yaml:"dependencies"`
	Pool struct {
		CurrencyExponent int    `yaml:"currency_exponent"`
		RefundDelayDays  int    `yaml:"refund_delay_days"`
		MinContribution  string `yaml:"min_contribution"`
		RaceThreshold    string `yaml:"race_threshold"`
		BuilderPct       string `yaml:"builder_pct"`
		SubmitterPct     string `yaml:"submitter_pct"`
		PlatformPct      string `yaml:"platform_pct"`
		ClaimTolerance   string `yaml:"claim_tolerance"`
	} `yaml:"pool"`
	Voting struct {
		WindowHours           int    `yaml:"window_hours"`
		RejectionCooldownDays int    `yaml:"rejection_cooldown_days"`
		Quorum                int    `yaml:"quorum"`
		TieOutcome            string `yaml:"tie_outcome"`
	} `yaml:"voting"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "idea-pool-service",
		Project:              "shipyard",
		HTTPPort:             8080,
		VaultTimeout:         5 * time.Second,
		AllowEphemeralSigner: true,
		CurrencyExponent:     2,
		RefundDelayDays:      30,
		MinContribution:      decimal.NewFromInt(1),
		RaceThreshold:        decimal.NewFromInt(100),
		BuilderPct:           decimal.NewFromInt(70),
		SubmitterPct:         decimal.NewFromInt(20),
		PlatformPct:          decimal.NewFromInt(10),
		ClaimTolerance:       decimal.New(1, -2),
		ClaimTTL:             10 * time.Minute,
		VotingWindow:         72 * time.Hour,
		RejectionCooldown:    7 * 24 * time.Hour,
		VoteQuorum:           0,
		TieOutcome:           "rejected",
		MaxDBConns:           20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.Project != "" {
			cfg.Project = f.Service.Project
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.VaultURL != "" {
			cfg.VaultURL = f.Dependencies.VaultURL
		}
		if f.Pool.CurrencyExponent > 0 {
			cfg.CurrencyExponent = int32(f.Pool.CurrencyExponent)
		}
		if f.Pool.RefundDelayDays > 0 {
			cfg.RefundDelayDays = f.Pool.RefundDelayDays
		}
		cfg.MinContribution = decimalOrDefault(f.Pool.MinContribution, cfg.MinContribution)
		cfg.RaceThreshold = decimalOrDefault(f.Pool.RaceThreshold, cfg.RaceThreshold)
		cfg.BuilderPct = decimalOrDefault(f.Pool.BuilderPct, cfg.BuilderPct)
		cfg.SubmitterPct = decimalOrDefault(f.Pool.SubmitterPct, cfg.SubmitterPct)
		cfg.PlatformPct = decimalOrDefault(f.Pool.PlatformPct, cfg.PlatformPct)
		cfg.ClaimTolerance = decimalOrDefault(f.Pool.ClaimTolerance, cfg.ClaimTolerance)
		if f.Voting.WindowHours > 0 {
			cfg.VotingWindow = time.Duration(f.Voting.WindowHours) * time.Hour
		}
		if f.Voting.RejectionCooldownDays > 0 {
			cfg.RejectionCooldown = time.Duration(f.Voting.RejectionCooldownDays) * 24 * time.Hour
		}
		if f.Voting.Quorum > 0 {
			cfg.VoteQuorum = f.Voting.Quorum
		}
		if f.Voting.TieOutcome != "" {
			cfg.TieOutcome = f.Voting.TieOutcome
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.VaultURL = envOrDefault("VAULT_URL", cfg.VaultURL)
	cfg.VaultAPIKey = envOrDefault("VAULT_API_KEY", cfg.VaultAPIKey)
	cfg.VaultSignerKeyHex = envOrDefault("VAULT_SIGNER_KEY", cfg.VaultSignerKeyHex)
	cfg.AllowEphemeralSigner = envBool("VAULT_ALLOW_EPHEMERAL_SIGNER", cfg.AllowEphemeralSigner)
	cfg.NonProduction = envBool("NON_PRODUCTION", cfg.NonProduction)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.RefundDelayDays = envInt("REFUND_DELAY_DAYS", cfg.RefundDelayDays)
	cfg.VoteQuorum = envInt("VOTE_QUORUM", cfg.VoteQuorum)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.VaultTimeout = time.Duration(envInt("VAULT_TIMEOUT_SECONDS", int(cfg.VaultTimeout.Seconds()))) * time.Second
	cfg.ClaimTTL = time.Duration(envInt("CLAIM_TTL_SECONDS", int(cfg.ClaimTTL.Seconds()))) * time.Second
	cfg.VotingWindow = time.Duration(envInt("VOTING_WINDOW_HOURS", int(cfg.VotingWindow.Hours()))) * time.Hour
	cfg.RejectionCooldown = time.Duration(envInt("REJECTION_COOLDOWN_DAYS", int(cfg.RejectionCooldown.Hours()/24))) * 24 * time.Hour

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.JWTPublicKeyPEM == "" {
		return Config{}, fmt.Errorf("missing JWT_PUBLIC_KEY_PEM")
	}
	if cfg.VaultURL == "" {
		return Config{}, fmt.Errorf("missing VAULT_URL")
	}
	if cfg.VaultSignerKeyHex == "" && !cfg.AllowEphemeralSigner {
		return Config{}, fmt.Errorf("missing VAULT_SIGNER_KEY")
	}

	return cfg, nil
}

func decimalOrDefault(raw string, fallback decimal.Decimal) decimal.Decimal {
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
