package types

// Config is the root configuration tree, mapped from geointel.ini.
type Config struct {
	LogConf      LogConf      `ini:"log"`
	SourceConf   SourceConf   `ini:"sources"`
	VerifierConf VerifierConf `ini:"verifier"`
	PoolConf     PoolConf     `ini:"pool"`
	DispatchConf DispatchConf `ini:"dispatch"`
	GeoConf      GeoConf      `ini:"geo"`
	WebConf      WebConf      `ini:"web"`
}

// LogConf controls the global logger.
type LogConf struct {
	Level string `ini:"level"`
}

// SourceConf lists the proxy source URLs the fetcher scrapes.
// HTML sources are table pages; plain sources are line-delimited host:port
// endpoints.
type SourceConf struct {
	HTMLSources  []string `ini:"html_sources" delim:","`
	PlainSources []string `ini:"plain_sources" delim:","`
}

// VerifierConf controls the two-phase endpoint verification.
type VerifierConf struct {
	// TCPTimeoutMS bounds the phase-1 raw connect.
	TCPTimeoutMS int `ini:"tcp_timeout_ms"`
	// HTTPTimeoutMS bounds the phase-2 forwarding probe. Must be larger
	// than the TCP timeout.
	HTTPTimeoutMS int `ini:"http_timeout_ms"`
	// BatchTimeoutMS bounds a whole verification batch. Candidates still
	// unprocessed when it elapses count as rejected.
	BatchTimeoutMS int `ini:"batch_timeout_ms"`
	// EchoURL is the identity endpoint used to confirm forwarding.
	EchoURL string `ini:"echo_url"`

	WorkerCeiling    int `ini:"worker_ceiling"`
	WorkerFloor      int `ini:"worker_floor"`
	WorkerMultiplier int `ini:"worker_multiplier"`
}

// PoolConf controls the verified proxy pool.
type PoolConf struct {
	// EvictionThreshold is the consecutive-failure count at which a proxy
	// is removed from the pool.
	EvictionThreshold int    `ini:"eviction_threshold"`
	StoragePath       string `ini:"storage_path"`
	// PersistIntervalSeconds and RecheckIntervalSeconds drive the serve-mode
	// background tickers. Zero disables the respective ticker.
	PersistIntervalSeconds int `ini:"persist_interval_seconds"`
	RecheckIntervalSeconds int `ini:"recheck_interval_seconds"`
}

// DispatchConf controls the tiered request dispatcher.
type DispatchConf struct {
	// RetryBudget is the maximum number of proxy-tier attempts per request.
	RetryBudget int `ini:"retry_budget"`
	// BlockStatuses are HTTP statuses treated as throttling/blocking and
	// therefore as triggers for the proxy fallback tier.
	BlockStatuses []int `ini:"block_statuses" delim:","`
	TimeoutMS     int   `ini:"timeout_ms"`
	// ChallengeTimeoutMS bounds the challenge-client tier separately; that
	// tier does a full TLS-impersonation handshake and needs more room.
	ChallengeTimeoutMS int `ini:"challenge_timeout_ms"`
}

// GeoConf configures the geolocation collaborators.
type GeoConf struct {
	// OpenCageKey enables reverse geocoding when set.
	OpenCageKey string `ini:"opencage_key"`
	// MMDBPath points at a local GeoLite2 City database used to annotate
	// verified proxies offline. Empty disables the annotation.
	MMDBPath string `ini:"mmdb_path"`
}

// WebConf configures the optional status web service (serve mode).
type WebConf struct {
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`
}

// ApplyDefaults fills in zero-valued fields with working defaults so a
// minimal ini file (or none at all) still yields a runnable configuration.
func (c *Config) ApplyDefaults() {
	if c.LogConf.Level == "" {
		c.LogConf.Level = "info"
	}
	if len(c.SourceConf.HTMLSources) == 0 {
		c.SourceConf.HTMLSources = []string{
			"https://free-proxy-list.net/",
			"https://www.sslproxies.org/",
			"https://us-proxy.org/",
		}
	}
	if len(c.SourceConf.PlainSources) == 0 {
		c.SourceConf.PlainSources = []string{
			"https://www.proxy-list.download/api/v1/get?type=http",
			"https://www.proxy-list.download/api/v1/get?type=https",
		}
	}
	if c.VerifierConf.TCPTimeoutMS <= 0 {
		c.VerifierConf.TCPTimeoutMS = 2000
	}
	if c.VerifierConf.HTTPTimeoutMS <= c.VerifierConf.TCPTimeoutMS {
		c.VerifierConf.HTTPTimeoutMS = 8000
	}
	if c.VerifierConf.BatchTimeoutMS <= 0 {
		c.VerifierConf.BatchTimeoutMS = 120000
	}
	if c.VerifierConf.EchoURL == "" {
		c.VerifierConf.EchoURL = "https://api.ipify.org"
	}
	if c.VerifierConf.WorkerCeiling <= 0 {
		c.VerifierConf.WorkerCeiling = 50
	}
	if c.VerifierConf.WorkerFloor <= 0 {
		c.VerifierConf.WorkerFloor = 4
	}
	if c.VerifierConf.WorkerMultiplier <= 0 {
		c.VerifierConf.WorkerMultiplier = 4
	}
	if c.PoolConf.EvictionThreshold <= 0 {
		c.PoolConf.EvictionThreshold = 3
	}
	if c.PoolConf.StoragePath == "" {
		c.PoolConf.StoragePath = "proxies.txt"
	}
	if c.DispatchConf.RetryBudget <= 0 {
		c.DispatchConf.RetryBudget = 5
	}
	if len(c.DispatchConf.BlockStatuses) == 0 {
		c.DispatchConf.BlockStatuses = []int{402, 429}
	}
	if c.DispatchConf.TimeoutMS <= 0 {
		c.DispatchConf.TimeoutMS = 10000
	}
	if c.DispatchConf.ChallengeTimeoutMS <= 0 {
		c.DispatchConf.ChallengeTimeoutMS = 20000
	}
}
