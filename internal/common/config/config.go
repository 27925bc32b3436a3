// internal/common/config/config.go
package config

import "strings"

// AuthMethod is the Elasticsearch authentication method, selected once at
// startup and threaded through as part of the config object.
type AuthMethod string

const (
	AuthBasic  AuthMethod = "basic"
	AuthAPIKey AuthMethod = "api_key"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Salesforce    SalesforceConfig    `mapstructure:"salesforce"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Currency      CurrencyConfig      `mapstructure:"currency"`
	Output        OutputConfig        `mapstructure:"output"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// SalesforceConfig holds connection settings for the Salesforce org.
// Token-based auth via the sf CLI is preferred; username/password/token is
// the fallback for environments without the CLI.
type SalesforceConfig struct {
	InstanceURL string `mapstructure:"instance_url"`
	OrgAlias    string `mapstructure:"org_alias"`
	APIVersion  string `mapstructure:"api_version"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	Token       string `mapstructure:"token"`
}

// HasPasswordAuth reports whether password-flow credentials are configured.
func (s SalesforceConfig) HasPasswordAuth() bool {
	return s.Username != "" && s.Password != ""
}

type ElasticsearchConfig struct {
	ClusterURL string     `mapstructure:"cluster_url"`
	Username   string     `mapstructure:"username"`
	Password   string     `mapstructure:"password"`
	APIKey     string     `mapstructure:"api_key"`
	AuthMethod AuthMethod `mapstructure:"-"`

	// Index is the single shared index name. Per-entity overrides win when set.
	Index            string `mapstructure:"index"`
	OpportunityIndex string `mapstructure:"opportunity_index"`
	CaseIndex        string `mapstructure:"case_index"`

	SkipTLSVerify bool `mapstructure:"skip_tls_verify"`
}

// Default index names, used when neither ES_INDEX nor a per-entity variable
// is set.
const (
	DefaultOpportunityIndex = "salesforce-opportunities"
	DefaultCaseIndex        = "salesforce-cases"
)

// IndexFor resolves the index name for an entity: per-entity override first,
// then the shared index, then the entity default.
func (e ElasticsearchConfig) IndexFor(entity string) string {
	switch strings.ToLower(entity) {
	case "opportunity":
		if e.OpportunityIndex != "" {
			return e.OpportunityIndex
		}
		if e.Index != "" {
			return e.Index
		}
		return DefaultOpportunityIndex
	case "case":
		if e.CaseIndex != "" {
			return e.CaseIndex
		}
		if e.Index != "" {
			return e.Index
		}
		return DefaultCaseIndex
	default:
		return e.Index
	}
}

type CurrencyConfig struct {
	TargetCurrency string `mapstructure:"target_currency"`
	RatesAPIURL    string `mapstructure:"rates_api_url"`
	TimeoutMs      int    `mapstructure:"timeout_ms"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
