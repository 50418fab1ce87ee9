package validate

import (
	"net/url"
	"strings"
)

// ExcludedImageMarkers are path fragments of non-profile assets: UI icons,
// bundled static assets and the small avatar thumbnail size.
var ExcludedImageMarkers = []string{
	"static-assets",
	"/icons/",
	"/172x216_",
}

// DefaultImageHostMarkers restricts images to the profile photo CDN paths.
var DefaultImageHostMarkers = []string{"gotinder.com/u/"}

// ImageFilter decides whether a discovered URL is a profile photo.
type ImageFilter struct {
	// HostMarkers, when non-empty, requires one of them to appear in the URL.
	HostMarkers []string
}

// Allow reports whether raw passes the filter.
func (f ImageFilter) Allow(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	for _, marker := range ExcludedImageMarkers {
		if strings.Contains(raw, marker) {
			return false
		}
	}
	if len(f.HostMarkers) == 0 {
		return true
	}
	for _, marker := range f.HostMarkers {
		if strings.Contains(raw, marker) {
			return true
		}
	}
	return false
}

// ProfileIDFromImage returns the user id segment of a photo URL ("/u/<id>/...").
func ProfileIDFromImage(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "u" && parts[i+1] != "" {
			return parts[i+1], true
		}
	}
	return "", false
}
