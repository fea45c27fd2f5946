package http

import (
	"net/url"
	"strings"
)

// frontendRedirects builds the two places a login can land.
type frontendRedirects struct {
	base string
}

func newFrontendRedirects(frontendURL string) frontendRedirects {
	return frontendRedirects{base: strings.TrimSuffix(frontendURL, "/")}
}

// success is <frontend>/dashboard?auth=success&token=<credential>.
func (f frontendRedirects) success(token string) string {
	q := url.Values{}
	q.Set("auth", "success")
	q.Set("token", token)
	return f.base + "/dashboard?" + q.Encode()
}

// failure is <frontend>/login?auth=error. The cause is never included.
func (f frontendRedirects) failure() string {
	return f.base + "/login?auth=error"
}
