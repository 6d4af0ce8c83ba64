package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestCheckSite tests the reachability preflight.
func TestCheckSite(t *testing.T) {
	t.Parallel()

	t.Run("success status is OK", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		status := CheckSite(context.Background(), server.URL, 5*time.Second, "gravescan-test")
		if status != SiteStatusOK {
			t.Errorf("expected OK, got %s", status)
		}
		if gotUA != "gravescan-test" {
			t.Errorf("expected user agent to be sent, got %q", gotUA)
		}
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(server.Close)

		status := CheckSite(context.Background(), server.URL, 5*time.Second, "")
		if status != SiteStatusUnavailable {
			t.Errorf("expected unavailable, got %s", status)
		}
		if !errors.Is(status.Error(), ErrSiteUnavailable) {
			t.Errorf("expected ErrSiteUnavailable, got %v", status.Error())
		}
	})

	t.Run("closed server is unreachable", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		status := CheckSite(context.Background(), url, 2*time.Second, "")
		if status != SiteStatusUnreachable {
			t.Errorf("expected unreachable, got %s", status)
		}
	})

	t.Run("slow server times out", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		status := CheckSite(context.Background(), server.URL, 50*time.Millisecond, "")
		if status != SiteStatusTimeout {
			t.Errorf("expected timeout, got %s", status)
		}
	})
}

func TestSiteStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status  SiteStatus
		str     string
		wantErr error
	}{
		{SiteStatusOK, "OK", nil},
		{SiteStatusUnavailable, "unavailable", ErrSiteUnavailable},
		{SiteStatusUnreachable, "unreachable", ErrSiteUnreachable},
		{SiteStatusTimeout, "timeout", ErrSiteTimeout},
		{SiteStatus(42), "unknown", ErrSiteUnreachable},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
		if got := tt.status.Error(); !errors.Is(got, tt.wantErr) {
			t.Errorf("Error() = %v, want %v", got, tt.wantErr)
		}
	}
}
