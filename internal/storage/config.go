package storage

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the storage configuration. It is read from the environment
// once at process start and injected into the store constructors; nothing
// re-reads ambient process state after that.
type Config struct {
	// DataDir is the local data directory. The database document lives at
	// db.json inside it and uploaded images under uploads/.
	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	// GitHubToken and GitHubRepo ("owner/repo") select the remote medium
	// when both are present.
	GitHubToken string `env:"GITHUB_TOKEN"`
	GitHubRepo  string `env:"GITHUB_REPO"`
}

// LoadConfig parses the storage configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse storage config: %w", err)
	}
	return cfg, nil
}

// UseRemote reports whether the remote GitHub-backed medium is configured:
// a token plus an owner/repo-shaped identifier. Decided once at startup and
// fixed for the process lifetime.
func (c *Config) UseRemote() bool {
	return c.GitHubToken != "" && strings.Contains(c.GitHubRepo, "/")
}

// SplitRepo returns the owner and repository parts of the identifier.
func (c *Config) SplitRepo() (owner, repo string) {
	owner, repo, _ = strings.Cut(c.GitHubRepo, "/")
	return owner, repo
}
