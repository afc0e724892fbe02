package planapi

import (
	"fmt"
	"net/url"
	"strings"
)

// LoopbackBaseURL is where a locally served page finds its backend.
const LoopbackBaseURL = "http://127.0.0.1:8000"

// ResolveBaseURL picks the planner backend for a page served from origin.
// Static hosts that cannot proxy /api use the external backend.
func ResolveBaseURL(origin, external string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse public origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("public origin %q needs a scheme and host", origin)
	}

	host := u.Hostname()
	switch {
	case host == "localhost" || host == "127.0.0.1":
		return LoopbackBaseURL, nil
	case strings.Contains(host, "vercel.app"):
		return u.Scheme + "://" + u.Host + "/api", nil
	case strings.Contains(host, "netlify.app") || strings.Contains(host, "github.io"):
		if external == "" {
			return "", fmt.Errorf("origin %s is a static host and no external backend is configured", host)
		}
		return strings.TrimRight(external, "/"), nil
	default:
		return u.Scheme + "://" + u.Host + "/api", nil
	}
}
