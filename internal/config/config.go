// Package config defines and loads the on-disk YAML configuration for
// the opendrop daemon and CLI.
package config

// CurrentConfigVersion is the latest configuration schema version. Bump
// this when adding fields that require migration.
const CurrentConfigVersion = 1

// Config is the root configuration structure.
type Config struct {
	Version   int             `yaml:"version,omitempty"`
	Identity  IdentityConfig  `yaml:"identity"`
	Network   NetworkConfig   `yaml:"network"`
	Security  SecurityConfig  `yaml:"security,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// IdentityConfig controls the persisted identity: display name, model
// string advertised to peers, and where the TLS key pair lives.
type IdentityConfig struct {
	KeyDir        string `yaml:"key_dir"`
	ServiceID     string `yaml:"service_id,omitempty"` // empty = a random id is generated for each run
	ComputerName  string `yaml:"computer_name,omitempty"`
	ComputerModel string `yaml:"computer_model,omitempty"`
}

// NetworkConfig controls which interface and port range this node binds.
type NetworkConfig struct {
	Interface    string `yaml:"interface"`     // e.g. "awdl0" or "en0"
	Port         uint16 `yaml:"port"`          // base port; Listen retries upward on collision
	AllowURLMode bool   `yaml:"allow_url_mode,omitempty"`
}

// SecurityConfig controls transfer acceptance policy.
type SecurityConfig struct {
	AutoAcceptFromKnownPeers bool     `yaml:"auto_accept_from_known_peers,omitempty"`
	KnownPeerIDs             []string `yaml:"known_peer_ids,omitempty"`
	DownloadDir              string   `yaml:"download_dir"`
}

// TelemetryConfig holds observability settings. Disabled by default.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// MetricsConfig controls Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"` // default: "127.0.0.1:9091"
}

// Default returns a Config with every field set to the value opendrop
// uses when no config file is present.
func Default() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Identity: IdentityConfig{
			KeyDir: DefaultKeyDir(),
		},
		Network: NetworkConfig{
			Interface: "awdl0",
			Port:      8770,
		},
		Security: SecurityConfig{
			DownloadDir: DefaultDownloadDir(),
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{
				Enabled:       false,
				ListenAddress: "127.0.0.1:9091",
			},
		},
	}
}
