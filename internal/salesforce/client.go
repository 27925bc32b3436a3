// internal/salesforce/client.go
package salesforce

import (
	"fmt"

	"github.com/simpleforce/simpleforce"

	"sf-indexer/internal/common/config"
	apperrors "sf-indexer/internal/common/errors"
	"sf-indexer/internal/common/logger"
)

// Client wraps the simpleforce client behind the small query surface the
// readers need.
type Client struct {
	sf     *simpleforce.Client
	logger logger.Logger
}

// queryRunner is the surface the entity readers consume; *Client satisfies it.
type queryRunner interface {
	Query(soql string) (*simpleforce.QueryResult, error)
}

// NewClient builds an authenticated Salesforce client. The sf CLI session is
// preferred; username/password/token login is the fallback when configured.
func NewClient(cfg config.SalesforceConfig, log logger.Logger) (*Client, error) {
	instanceURL := cfg.InstanceURL
	if instanceURL == "" {
		instanceURL = "https://login.salesforce.com"
	}

	sf := simpleforce.NewClient(instanceURL, simpleforce.DefaultClientID, cfg.APIVersion)
	if sf == nil {
		return nil, fmt.Errorf("failed to create Salesforce client")
	}

	provider := NewCLITokenProvider(cfg.OrgAlias, log)
	token, tokenInstanceURL, err := provider.Token()
	if err == nil {
		sf.SetSidLoc(token, tokenInstanceURL)
		log.Info("authenticated via sf CLI session", map[string]interface{}{"org": cfg.OrgAlias})
		return &Client{sf: sf, logger: log}, nil
	}

	log.Warn("no sf CLI session available, trying password login", map[string]interface{}{"error": err})

	if !cfg.HasPasswordAuth() {
		return nil, apperrors.NewSalesforceAuthError(err)
	}
	if loginErr := sf.LoginPassword(cfg.Username, cfg.Password, cfg.Token); loginErr != nil {
		return nil, apperrors.NewSalesforceAuthError(loginErr)
	}

	log.Info("authenticated via password login", map[string]interface{}{"username": cfg.Username})
	return &Client{sf: sf, logger: log}, nil
}

// Query runs a SOQL query against the org.
func (c *Client) Query(soql string) (*simpleforce.QueryResult, error) {
	c.logger.Debug("running SOQL query", map[string]interface{}{"soql": soql})
	return c.sf.Query(soql)
}

// record field helpers: simpleforce returns SObjects as loosely typed maps;
// everything is normalized here, at the reader boundary.

func getString(rec map[string]interface{}, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func getFloat(rec map[string]interface{}, key string) float64 {
	if v, ok := rec[key].(float64); ok {
		return v
	}
	return 0
}

func getBool(rec map[string]interface{}, key string) bool {
	if v, ok := rec[key].(bool); ok {
		return v
	}
	return false
}

func getNested(rec map[string]interface{}, key string) map[string]interface{} {
	if v, ok := rec[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func getNestedString(rec map[string]interface{}, key, sub string) string {
	if nested := getNested(rec, key); nested != nil {
		return getString(nested, sub)
	}
	return ""
}
