package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv(EnvInstanceDir, "")
	t.Setenv(EnvTimeout, "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.InstanceDir != "" {
		t.Errorf("InstanceDir = %q, want empty", cfg.InstanceDir)
	}
	if cfg.RequestTimeout != DefaultTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, DefaultTimeout)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv(EnvInstanceDir, "/srv/houdini/instances")
	t.Setenv(EnvTimeout, "45")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.InstanceDir != "/srv/houdini/instances" {
		t.Errorf("InstanceDir = %q", cfg.InstanceDir)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("RequestTimeout = %v, want 45s", cfg.RequestTimeout)
	}
}

func TestFromEnvDurationSyntax(t *testing.T) {
	t.Setenv(EnvTimeout, "2m30s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.RequestTimeout != 2*time.Minute+30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
}

func TestFromEnvRejectsBadTimeout(t *testing.T) {
	for _, raw := range []string{"abc", "-5", "0", "-1s"} {
		t.Setenv(EnvTimeout, raw)
		if _, err := FromEnv(); err == nil {
			t.Errorf("FromEnv with %q should fail", raw)
		}
	}
}
