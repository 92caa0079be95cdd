// Package workspaces holds the listing logic the dashboards share: the
// discovery filter for members and booking statistics for hosts.
package workspaces

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/loganlanou/cowork/internal/backend"
)

// Amenities is the fixed catalogue offered in the discovery filter.
var Amenities = []string{"WiFi", "Coffee", "Projector", "Whiteboards", "Parking", "Printing"}

// CapacityBuckets are the choices of the capacity filter.
var CapacityBuckets = []string{"1-4", "5-10", "10+"}

const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 100
)

// Filter is the member's discovery query. The zero value of Location,
// Capacity and Amenities matches everything.
type Filter struct {
	Location  string
	Capacity  string
	MinPrice  float64
	MaxPrice  float64
	Amenities []string
}

func DefaultFilter() Filter {
	return Filter{MinPrice: DefaultMinPrice, MaxPrice: DefaultMaxPrice}
}

// FilterFromQuery reads a filter from the discovery form's query string.
// Unparseable prices fall back to the defaults.
func FilterFromQuery(q url.Values) Filter {
	f := DefaultFilter()
	f.Location = strings.TrimSpace(q.Get("location"))
	f.Capacity = q.Get("capacity")
	f.MinPrice = parsePrice(q.Get("min_price"), DefaultMinPrice)
	f.MaxPrice = parsePrice(q.Get("max_price"), DefaultMaxPrice)

	for _, a := range q["amenity"] {
		if isAmenity(a) {
			f.Amenities = append(f.Amenities, a)
		}
	}
	return f
}

func parsePrice(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func isAmenity(name string) bool {
	for _, a := range Amenities {
		if a == name {
			return true
		}
	}
	return false
}

// IsDefault reports whether the filter narrows nothing beyond the defaults.
func (f Filter) IsDefault() bool {
	return f.Location == "" && f.Capacity == "" && len(f.Amenities) == 0 &&
		f.MinPrice == DefaultMinPrice && f.MaxPrice == DefaultMaxPrice
}

// HasAmenity reports whether name is selected.
func (f Filter) HasAmenity(name string) bool {
	for _, a := range f.Amenities {
		if a == name {
			return true
		}
	}
	return false
}

// Match reports whether w is listed under f. Inactive listings never match.
func (f Filter) Match(w backend.Workspace) bool {
	if !w.IsActive() {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(w.Location), strings.ToLower(f.Location)) {
		return false
	}
	if !capacityMatches(f.Capacity, w.Capacity) {
		return false
	}
	if w.Price < f.MinPrice || w.Price > f.MaxPrice {
		return false
	}
	for _, want := range f.Amenities {
		if !contains(w.Amenities, want) {
			return false
		}
	}
	return true
}

// capacityMatches compares the listing's free-text capacity against a
// bucket by substring, so "12" falls in both "1-4" and "10+".
func capacityMatches(bucket, capacity string) bool {
	switch bucket {
	case "1-4":
		return strings.Contains(capacity, "1") || strings.Contains(capacity, "4") || capacity == "1-4"
	case "5-10":
		return strings.Contains(capacity, "5") || strings.Contains(capacity, "10") || capacity == "5-10"
	case "10+":
		return strings.Contains(capacity, "10") || strings.HasPrefix(capacity, "10")
	default:
		return true
	}
}

// Apply returns the listings matching f, in their original order.
func Apply(all []backend.Workspace, f Filter) []backend.Workspace {
	out := make([]backend.Workspace, 0, len(all))
	for _, w := range all {
		if f.Match(w) {
			out = append(out, w)
		}
	}
	return out
}

// Locations lists the distinct locations in order of first appearance.
func Locations(all []backend.Workspace) []string {
	seen := make(map[string]bool, len(all))
	var out []string
	for _, w := range all {
		if w.Location == "" || seen[w.Location] {
			continue
		}
		seen[w.Location] = true
		out = append(out, w.Location)
	}
	return out
}

// Saved returns the active listings whose IDs are in ids.
func Saved(all []backend.Workspace, ids []string) []backend.Workspace {
	var out []backend.Workspace
	for _, w := range all {
		if w.IsActive() && contains(ids, w.ID) {
			out = append(out, w)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
