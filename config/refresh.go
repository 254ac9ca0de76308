package config

import "time"

// RefreshConfig contains dataset refresh configuration.
//
// Each dataset category maps to one or more regeneration scripts under
// ScriptsDir. The scripts themselves are external collaborators; the server
// only invokes them and reports success or failure.
type RefreshConfig struct {
	// ScriptsDir is the directory containing the regeneration scripts.
	ScriptsDir string `env:"REFRESH_SCRIPTS_DIR" envDefault:"scripts"`

	// MarketScript regenerates the market dataset.
	MarketScript string `env:"REFRESH_MARKET_SCRIPT" envDefault:"fetch_market.py"`

	// NewsScript regenerates the news dataset.
	NewsScript string `env:"REFRESH_NEWS_SCRIPT" envDefault:"fetch_news.py"`

	// Timeout bounds a single script invocation.
	Timeout time.Duration `env:"REFRESH_TIMEOUT" envDefault:"2m"`
}

// Sanitize applies guardrails to refresh configuration values.
func (r *RefreshConfig) Sanitize() {
	if r.ScriptsDir == "" {
		r.ScriptsDir = "scripts"
	}
	if r.Timeout < time.Second {
		r.Timeout = time.Second
	}
	if r.Timeout > 10*time.Minute {
		r.Timeout = 10 * time.Minute
	}
}
