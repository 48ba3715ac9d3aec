package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint as deprecated with sunset date.
type DeprecatedRoute struct {
	Path        string    // Handler path pattern
	SunsetDate  time.Time // Date when endpoint will be removed
	Alternative string    // Recommended alternative endpoint (optional)
}

// DeprecationMiddleware adds Deprecation, Sunset, and Link headers to deprecated endpoints.
// This helps clients migrate gracefully to newer API versions.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Check if this route is deprecated
		for _, d := range deprecated {
			if c.Path() == d.Path || matchPattern(c.Path(), d.Path) {
				// RFC 8594 Deprecation header
				c.Set("Deprecation", "true")

				// RFC 8594 Sunset header (HTTP-Date format)
				c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))

				// RFC 8288 Link header with deprecation info
				var linkHeader string
				if d.Alternative != "" {
					alt := expandPattern(d.Alternative, d.Path, c.Path())
					linkHeader = fmt.Sprintf(`<%s>; rel="successor-version"`, alt)
					c.Set("Link", linkHeader)
				}

				// Warning header (optional, RFC 7234)
				days := time.Until(d.SunsetDate).Hours() / 24
				c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))

				break
			}
		}

		return c.Next()
	}
}

// matchPattern reports whether path matches a route pattern whose segments
// may be ":name" parameters (e.g. "/api/vessel/:mmsi/stats").
func matchPattern(path, pattern string) bool {
	if path == pattern {
		return true
	}
	ps := strings.Split(strings.Trim(path, "/"), "/")
	qs := strings.Split(strings.Trim(pattern, "/"), "/")
	if len(ps) != len(qs) {
		return false
	}
	for i, q := range qs {
		if strings.HasPrefix(q, ":") {
			if ps[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != q {
			return false
		}
	}
	return true
}

// expandPattern fills ":name" segments of target with the values path holds
// for the same names in pattern.
func expandPattern(target, pattern, path string) string {
	params := map[string]string{}
	ps := strings.Split(strings.Trim(path, "/"), "/")
	for i, q := range strings.Split(strings.Trim(pattern, "/"), "/") {
		if strings.HasPrefix(q, ":") && i < len(ps) {
			params[q] = ps[i]
		}
	}
	segs := strings.Split(target, "/")
	for i, seg := range segs {
		if v, ok := params[seg]; ok {
			segs[i] = v
		}
	}
	return strings.Join(segs, "/")
}
