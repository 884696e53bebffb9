package config

import "testing"

func TestValidateInvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 0},
		Store: StoreConfig{Addrs: []string{"localhost:6379"}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidateMissingStoreAddrs(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Store: StoreConfig{Driver: "redis", Addrs: []string{}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing store addrs")
	}
}

func TestValidateMemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{Port: 8080},
		Store:      StoreConfig{Driver: "memory"},
		Collection: CollectionConfig{NumShards: 4},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for memory driver: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Store.Driver != "redis" {
		t.Errorf("expected driver=redis, got %q", cfg.Store.Driver)
	}
	if cfg.Store.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Store.ReadinessTimeout)
	}
	if cfg.Collection.NumShards != 4 {
		t.Errorf("expected NumShards=4, got %d", cfg.Collection.NumShards)
	}
	if cfg.Collection.MaxResults != 1000 {
		t.Errorf("expected MaxResults=1000, got %d", cfg.Collection.MaxResults)
	}
	if cfg.Collection.SnippetStrAboveLen != 1000 {
		t.Errorf("expected SnippetStrAboveLen=1000, got %d", cfg.Collection.SnippetStrAboveLen)
	}
}

func TestApplyDefaultsNoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Store:      StoreConfig{Driver: "memory", ReadinessTimeout: 15},
		Collection: CollectionConfig{NumShards: 8, MaxResults: 500, SnippetStrAboveLen: 200},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("expected driver to stay memory, got %q", cfg.Store.Driver)
	}
	if cfg.Collection.NumShards != 8 {
		t.Errorf("expected NumShards=8, got %d", cfg.Collection.NumShards)
	}
}
