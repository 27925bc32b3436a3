// internal/salesforce/auth.go
package salesforce

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/goccy/go-json"

	"sf-indexer/internal/common/logger"
)

// cliOrgInfo is the subset of `sf org display --json` output we need.
type cliOrgInfo struct {
	Result struct {
		AccessToken string `json:"accessToken"`
		InstanceURL string `json:"instanceUrl"`
	} `json:"result"`
}

// CLITokenProvider obtains a session token from the locally installed
// Salesforce CLI. Authentication itself (browser login, token refresh) is
// delegated entirely to the CLI.
type CLITokenProvider struct {
	OrgAlias string
	logger   logger.Logger
}

func NewCLITokenProvider(orgAlias string, log logger.Logger) *CLITokenProvider {
	return &CLITokenProvider{OrgAlias: orgAlias, logger: log}
}

// Token returns the access token and instance URL for the configured org.
func (p *CLITokenProvider) Token() (accessToken, instanceURL string, err error) {
	cmd := exec.Command("sf", "org", "display", "--json", "-o", p.OrgAlias)
	cmd.Env = append(os.Environ(), "NO_COLOR=1")

	out, err := cmd.Output()
	if err != nil {
		return "", "", fmt.Errorf("sf org display failed: %w", err)
	}

	var info cliOrgInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return "", "", fmt.Errorf("parse sf org display output: %w", err)
	}

	if info.Result.AccessToken == "" || info.Result.InstanceURL == "" {
		return "", "", fmt.Errorf("no active session for org %q", p.OrgAlias)
	}

	p.logger.Debug("obtained session token from sf CLI", map[string]interface{}{
		"org":         p.OrgAlias,
		"instanceUrl": info.Result.InstanceURL,
	})
	return info.Result.AccessToken, info.Result.InstanceURL, nil
}
