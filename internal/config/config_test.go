package config

import (
	"testing"
	"time"
)

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voicedash", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "voicedash"
	c.Auth.JWTAudience = "voicedash-api"
	c.Audio.Dir = "/var/lib/voicedash/audio"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Audio.Dir != "data/audio" {
		t.Fatalf("expected local audio dir default, got %q", c.Audio.Dir)
	}
	if c.Sync.DashboardTimeout != 60*time.Second {
		t.Fatalf("expected 60s dashboard timeout default, got %v", c.Sync.DashboardTimeout)
	}
	if c.Sync.LockTTL != 2*time.Minute {
		t.Fatalf("expected 2m lock ttl default, got %v", c.Sync.LockTTL)
	}
}

func TestValidate_ProductionRequiresAudioDir(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.Auth.JWTIssuer = "voicedash"
	c.Auth.JWTAudience = "voicedash-api"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without AUDIO_DIR")
	}
}

func TestValidate_GatewayNeedsUpstream(t *testing.T) {
	c := validLocal()
	c.Providers.Gateway.BaseURL = "https://relay.example.com"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when gateway has no upstream")
	}
	c.Providers.Gateway.Upstream = "vapi"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_RefreshTTLMustExceedAccessTTL(t *testing.T) {
	c := validLocal()
	c.Auth.AccessTokenTTL = time.Hour
	c.Auth.RefreshTokenTTL = time.Minute
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when refresh ttl <= access ttl")
	}
}

func TestHTTPAddrAndDSN(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.HTTPAddr() != ":8080" {
		t.Fatalf("unexpected addr %q", c.HTTPAddr())
	}
	if c.RedisAddr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
	want := "host=localhost port=5432 user=postgres password=x dbname=voicedash sslmode=disable"
	if c.PostgresDSN() != want {
		t.Fatalf("unexpected dsn %q", c.PostgresDSN())
	}
}
