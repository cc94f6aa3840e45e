package scraper

import (
	"strings"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/jsonld"
)

// addressParts are the PostalAddress fields joined into a location, in order
var addressParts = []string{"addressLocality", "addressRegion", "addressCountry"}

// FormatLocation flattens a structured-data location into a display string.
// A string is used as-is. A Place object becomes its venue name followed by
// locality, region and country, skipping absent parts. Arrays use their first
// usable entry. Anything else yields "TBA".
func FormatLocation(n jsonld.Node) string {
	if s := formatLocation(n); s != "" {
		return s
	}
	return event.LocationTBA
}

func formatLocation(n jsonld.Node) string {
	switch v := n.(type) {
	case jsonld.String:
		return strings.TrimSpace(string(v))
	case jsonld.Array:
		for _, item := range v {
			if s := formatLocation(item); s != "" {
				return s
			}
		}
	case *jsonld.Object:
		return formatPlace(v)
	}
	return ""
}

func formatPlace(place *jsonld.Object) string {
	var parts []string
	if name, ok := place.Text("name"); ok {
		parts = append(parts, name)
	}

	address, _ := place.Get("address")
	switch a := address.(type) {
	case jsonld.String:
		if s := strings.TrimSpace(string(a)); s != "" {
			parts = append(parts, s)
		}
	case *jsonld.Object:
		for _, field := range addressParts {
			if s, ok := a.Text(field); ok {
				parts = append(parts, s)
				continue
			}
			// addressCountry may be a Country object
			if c, ok := a.Child(field); ok {
				if s, ok := c.Text("name"); ok {
					parts = append(parts, s)
				}
			}
		}
	}

	return strings.Join(parts, ", ")
}
