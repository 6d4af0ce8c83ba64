package browser

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
)

// CheckSite sends one GET request to baseURL and classifies the outcome.
// No retries are made; the preflight only tells the user early that the
// browser run would fail.
func CheckSite(ctx context.Context, baseURL string, timeout time.Duration, userAgent string) SiteStatus {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}

	resp, err := client.R().SetContext(ctx).Get(baseURL)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return SiteStatusTimeout
		}
		return SiteStatusUnreachable
	}
	if resp.IsError() {
		return SiteStatusUnavailable
	}
	return SiteStatusOK
}
