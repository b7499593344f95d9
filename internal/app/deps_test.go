package app

import (
	"context"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Tokens: config.TokenConfig{
			AccessSecret:  "a",
			RefreshSecret: "r",
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
		},
		ObjectStore: config.ObjectStoreConfig{
			Region: "us-east-1",
			Bucket: "test-bucket",
		},
		UploadDir: "/tmp",
	}
}

func TestBuildDependencies(t *testing.T) {
	deps, err := buildDependencies(context.Background(), nil, testConfig())
	if err != nil {
		t.Fatalf("buildDependencies: %v", err)
	}

	if deps.Users == nil || deps.Videos == nil || deps.Comments == nil {
		t.Error("repositories not wired")
	}
	if deps.Tokens == nil || deps.Media == nil || deps.LoginLimiter == nil {
		t.Error("services not wired")
	}
	if deps.UploadDir != "/tmp" {
		t.Errorf("upload dir = %q", deps.UploadDir)
	}
}

func TestBuildDependenciesMissingSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.Tokens.AccessSecret = ""

	if _, err := buildDependencies(context.Background(), nil, cfg); err == nil {
		t.Fatal("expected error for missing token secret")
	}
}

func TestBuildDependenciesMissingBucket(t *testing.T) {
	cfg := testConfig()
	cfg.ObjectStore.Bucket = ""

	if _, err := buildDependencies(context.Background(), nil, cfg); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
