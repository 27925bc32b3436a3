// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/goccy/go-json"

	"sf-indexer/internal/common/config"
	apperrors "sf-indexer/internal/common/errors"
)

// ElasticsearchClient wraps the Elasticsearch client
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch creates a new Elasticsearch client. Exactly one auth
// method is configured upstream: an API key or basic credentials.
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.ClusterURL},
	}

	switch cfg.AuthMethod {
	case config.AuthAPIKey:
		esCfg.APIKey = cfg.APIKey
	case config.AuthBasic:
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	if cfg.SkipTLSVerify {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es}, nil
}

// Ping tests the Elasticsearch connection, distinguishing auth failures from
// connectivity failures so callers can surface the right guidance.
func (c *ElasticsearchClient) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return apperrors.NewElasticsearchConnectionError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return apperrors.NewElasticsearchAuthError(fmt.Errorf("ping returned %s", res.Status()))
	}
	if res.IsError() {
		return apperrors.NewElasticsearchConnectionError(fmt.Errorf("ping returned %s", res.Status()))
	}

	return nil
}

// ClusterInfo is the subset of the root endpoint response used by the
// diagnostics tool.
type ClusterInfo struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`
}

// Info returns cluster information
func (c *ElasticsearchClient) Info(ctx context.Context) (*ClusterInfo, error) {
	res, err := c.Client.Info(
		c.Client.Info.WithContext(ctx),
	)
	if err != nil {
		return nil, apperrors.NewElasticsearchConnectionError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewElasticsearchConnectionError(fmt.Errorf("info returned %s", res.Status()))
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read info response: %w", err)
	}

	var info ClusterInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse info response: %w", err)
	}
	return &info, nil
}
