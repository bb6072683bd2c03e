package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	GitHub  GitHub
	Runtime Runtime
}

type GitHub struct {
	// Org is the GitHub organization to resolve repositories from
	// (name or URL; see --org).
	Org string

	// Repos lists repository names to resolve (see --repos). Values may be
	// provided as repeated flags and/or comma-separated lists.
	Repos []string

	// Token is an explicit access token (see --token). If empty, the token
	// is resolved from GITHUB_TOKEN or the gh CLI.
	Token string
}

type Runtime struct {
	// Timeout bounds one resolution run (see --timeout). Must be > 0.
	Timeout time.Duration

	// Verbose enables per-request API logging on stderr.
	Verbose bool
}

func New() *Config {
	return &Config{
		Runtime: Runtime{
			Timeout: 2 * time.Minute,
		},
	}
}

// Validate normalizes and checks the settings of the github command.
func (c *Config) Validate() error {
	c.GitHub.Repos = splitCommaList(c.GitHub.Repos)

	if c.GitHub.Org != "" {
		org, err := normalizeOrgSelector(c.GitHub.Org)
		if err != nil {
			return fmt.Errorf("invalid --org value: %w", err)
		}
		c.GitHub.Org = org
	}
	if c.GitHub.Org == "" {
		return errors.New("--org must be provided")
	}
	if len(c.GitHub.Repos) == 0 {
		return errors.New("--repos must name at least one repository")
	}
	for _, repo := range c.GitHub.Repos {
		if strings.Contains(repo, "/") {
			return fmt.Errorf("invalid --repos entry %q: expected a bare repository name within --org", repo)
		}
	}

	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	return nil
}

// normalizeOrgSelector accepts a raw org name or a GitHub URL like
// https://github.com/orgs/<name> or github.com/<name>.
func normalizeOrgSelector(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if strings.HasPrefix(raw, "github.com/") || strings.HasPrefix(raw, "www.github.com/") {
		raw = "https://" + raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%q", raw)
		}
		host := strings.ToLower(u.Hostname())
		if host == "www.github.com" {
			host = "github.com"
		}
		if host != "github.com" {
			return "", fmt.Errorf("%q", raw)
		}
		parts := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
		if len(parts) == 0 {
			return "", fmt.Errorf("%q", raw)
		}
		if parts[0] == "orgs" {
			if len(parts) < 2 {
				return "", fmt.Errorf("%q", raw)
			}
			return parts[1], nil
		}
		return parts[0], nil
	}

	// Basic sanity: reject obvious owner/repo-like inputs.
	if strings.Contains(raw, "/") {
		return "", fmt.Errorf("%q", raw)
	}
	return raw, nil
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
