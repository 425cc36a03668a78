package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Platform: PlatformConfig{
			BaseURL:    "https://apis.example.com",
			RedisAddrs: []string{"localhost:6379"},
		},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Platform.BaseURL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing platform base url")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Platform.RedisAddrs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_NegativeCacheTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.TTLSec = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for negative cache ttl")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Platform.ChannelPrefix != "marketplace:" {
		t.Errorf("expected ChannelPrefix='marketplace:', got %q", cfg.Platform.ChannelPrefix)
	}
	if cfg.Platform.HTTPTimeoutSec != 15 {
		t.Errorf("expected HTTPTimeoutSec=15, got %d", cfg.Platform.HTTPTimeoutSec)
	}
	if cfg.Platform.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Platform.ReadinessTimeout)
	}
	if cfg.Bulk.ItemTimeoutSec != 60 {
		t.Errorf("expected ItemTimeoutSec=60, got %d", cfg.Bulk.ItemTimeoutSec)
	}
	if cfg.Bulk.MaxBatchSize != 50 {
		t.Errorf("expected MaxBatchSize=50, got %d", cfg.Bulk.MaxBatchSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Platform: PlatformConfig{
			ChannelPrefix:    "custom:",
			HTTPTimeoutSec:   5,
			ReadinessTimeout: 15,
		},
		Bulk: BulkConfig{ItemTimeoutSec: 120, MaxBatchSize: 10},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Platform.ChannelPrefix != "custom:" {
		t.Errorf("expected ChannelPrefix='custom:', got %q", cfg.Platform.ChannelPrefix)
	}
	if cfg.Bulk.ItemTimeoutSec != 120 {
		t.Errorf("expected ItemTimeoutSec=120, got %d", cfg.Bulk.ItemTimeoutSec)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MG_TEST_KEY", "sekret")

	in := []byte("api_key: ${MG_TEST_KEY}\nprefix: ${MG_TEST_MISSING:-marketplace:}\n")
	out := string(expandEnvVars(in))

	want := "api_key: sekret\nprefix: marketplace:\n"
	if out != want {
		t.Errorf("expanded config:\ngot:  %q\nwant: %q", out, want)
	}
}
