// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "sf-indexer/internal/common/errors"
)

// Load reads configuration from an optional config.yaml, the environment,
// and a .env file when one is present. Environment variables always win.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root so
// the tools behave the same when run from subdirectories.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// overrideFromEnv applies the documented flat environment variables on top
// of whatever the config file provided.
func overrideFromEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}

	set(&cfg.Elasticsearch.ClusterURL, "ES_CLUSTER_URL")
	set(&cfg.Elasticsearch.Username, "ES_USERNAME")
	set(&cfg.Elasticsearch.Password, "ES_PASSWORD")
	set(&cfg.Elasticsearch.APIKey, "ES_API_KEY")
	set(&cfg.Elasticsearch.Index, "ES_INDEX")
	set(&cfg.Elasticsearch.OpportunityIndex, "ES_OPPORTUNITY_INDEX")
	set(&cfg.Elasticsearch.CaseIndex, "ES_CASE_INDEX")

	set(&cfg.Salesforce.InstanceURL, "SF_INSTANCE_URL")
	set(&cfg.Salesforce.OrgAlias, "SF_ORG_ALIAS")
	set(&cfg.Salesforce.APIVersion, "SF_API_VERSION")
	set(&cfg.Salesforce.Username, "SF_USERNAME")
	set(&cfg.Salesforce.Password, "SF_PASSWORD")
	set(&cfg.Salesforce.Token, "SF_TOKEN")

	set(&cfg.Currency.TargetCurrency, "SF_TARGET_CURRENCY")
	set(&cfg.Output.Dir, "SF_OUTPUT_DIR")
	set(&cfg.Logging.Level, "SF_LOG_LEVEL")
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sf-indexer"
	}

	if cfg.Salesforce.OrgAlias == "" {
		cfg.Salesforce.OrgAlias = "elastic"
	}
	if cfg.Salesforce.APIVersion == "" {
		cfg.Salesforce.APIVersion = "54.0"
	}

	if cfg.Currency.TargetCurrency == "" {
		cfg.Currency.TargetCurrency = "USD"
	}
	cfg.Currency.TargetCurrency = strings.ToUpper(strings.TrimSpace(cfg.Currency.TargetCurrency))
	if cfg.Currency.RatesAPIURL == "" {
		cfg.Currency.RatesAPIURL = "https://api.exchangerate-api.io/v4/latest"
	}
	if cfg.Currency.TimeoutMs == 0 {
		cfg.Currency.TimeoutMs = 10000
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "exports"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// validate checks the critical fields and pins the auth method enum.
// Exactly one of API key or username+password must be configured.
func validate(cfg *Config) error {
	es := &cfg.Elasticsearch

	if es.ClusterURL == "" {
		return apperrors.NewInvalidConfigError("ES_CLUSTER_URL is required")
	}
	if !strings.HasPrefix(es.ClusterURL, "http://") && !strings.HasPrefix(es.ClusterURL, "https://") {
		return apperrors.NewInvalidConfigError("ES_CLUSTER_URL must start with http:// or https://")
	}

	hasBasic := es.Username != "" && es.Password != ""
	hasAPIKey := es.APIKey != ""

	switch {
	case hasAPIKey && hasBasic:
		return apperrors.NewInvalidConfigError("set either ES_API_KEY or ES_USERNAME/ES_PASSWORD, not both")
	case hasAPIKey:
		es.AuthMethod = AuthAPIKey
	case hasBasic:
		es.AuthMethod = AuthBasic
	default:
		return apperrors.NewInvalidConfigError("one of ES_API_KEY or ES_USERNAME/ES_PASSWORD is required")
	}

	for _, name := range []string{es.Index, es.OpportunityIndex, es.CaseIndex} {
		if name == "" {
			continue
		}
		if name != strings.ToLower(name) {
			return apperrors.NewInvalidConfigError(fmt.Sprintf("index name %q must be lowercase", name))
		}
		if strings.ContainsAny(name, ` "*\<|,>/?`) {
			return apperrors.NewInvalidConfigError(fmt.Sprintf("index name %q contains invalid characters", name))
		}
	}

	return nil
}
