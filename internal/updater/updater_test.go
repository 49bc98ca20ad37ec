package updater

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
)

func stubReleaseEndpoint(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	oldEndpoint := releaseEndpoint
	releaseEndpoint = srv.URL
	t.Cleanup(func() {
		releaseEndpoint = oldEndpoint
		srv.Close()
	})
}

func TestCheckVersionUpdateAvailable(t *testing.T) {
	stubReleaseEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v1.2.0","html_url":"https://example.com/release"}`)
	})

	result := CheckVersion("1.0.0")
	if !result.UpdateAvailable {
		t.Fatal("expected update to be available")
	}
	if result.LatestVersion != "1.2.0" {
		t.Errorf("LatestVersion = %q, want %q", result.LatestVersion, "1.2.0")
	}
	if result.ReleaseURL != "https://example.com/release" {
		t.Errorf("ReleaseURL = %q", result.ReleaseURL)
	}
}

func TestCheckVersionUpToDate(t *testing.T) {
	stubReleaseEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v1.0.0"}`)
	})

	result := CheckVersion("v1.0.0")
	if result.UpdateAvailable {
		t.Error("expected no update for matching versions")
	}
}

func TestCheckVersionSwallowsServerErrors(t *testing.T) {
	stubReleaseEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	result := CheckVersion("1.0.0")
	if result.UpdateAvailable {
		t.Error("expected no update when the check fails")
	}
	if result.CurrentVersion != "1.0.0" {
		t.Errorf("CurrentVersion = %q, want %q", result.CurrentVersion, "1.0.0")
	}
}

func TestSelfUpdateAlreadyLatest(t *testing.T) {
	stubReleaseEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v1.0.0"}`)
	})

	err := SelfUpdate("1.0.0")
	if err == nil {
		t.Fatal("expected error when already at latest version")
	}
}

func TestSelfUpdateMissingAsset(t *testing.T) {
	stubReleaseEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v9.9.9","assets":[{"name":"wrong_asset.tar.gz","browser_download_url":"https://example.com/x"}]}`)
	})

	err := SelfUpdate("1.0.0")
	if err == nil {
		t.Fatal("expected error when no asset matches this platform")
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		want    bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.0.0", "1.1.0", true},
		{"1.2.3", "2.0.0", true},
		{"1.0.0", "1.0.0", false},
		{"1.2.0", "1.1.9", false},
		{"dev", "1.0.0", false},
		{"", "1.0.0", false},
		{"1.0.0", "", false},
		{"1.0.0-rc1", "1.0.1", true},
	}
	for _, tt := range tests {
		if got := isNewer(tt.current, tt.latest); got != tt.want {
			t.Errorf("isNewer(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
		}
	}
}

func TestNormalizeVersion(t *testing.T) {
	if got := normalizeVersion("v1.2.3"); got != "1.2.3" {
		t.Errorf("normalizeVersion(v1.2.3) = %q", got)
	}
	if got := normalizeVersion("1.2.3"); got != "1.2.3" {
		t.Errorf("normalizeVersion(1.2.3) = %q", got)
	}
}

func TestBuildAssetName(t *testing.T) {
	got := buildAssetName("1.2.3")
	ext := "tar.gz"
	if runtime.GOOS == "windows" {
		ext = "zip"
	}
	want := fmt.Sprintf("houdini-mcp_1.2.3_%s_%s.%s", runtime.GOOS, runtime.GOARCH, ext)
	if got != want {
		t.Errorf("buildAssetName = %q, want %q", got, want)
	}
}
