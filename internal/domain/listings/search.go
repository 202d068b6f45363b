package listings

import "strings"

const (
	defaultSearchLimit = 24
	maxSearchLimit     = 60
)

// SearchParams describe catalog filters. Paging is applied by callers
// after any availability filtering, so repositories ignore Limit and Offset.
type SearchParams struct {
	Host       HostID
	City       string
	Text       string
	MinGuests  int
	MaxPrice   *float64
	OnlyActive bool
	Limit      int
	Offset     int
}

// Normalized returns a sanitized copy of p with paging clamped.
func (p SearchParams) Normalized() SearchParams {
	n := p
	n.City = strings.ToLower(strings.TrimSpace(n.City))
	n.Text = strings.ToLower(strings.TrimSpace(n.Text))
	if n.MinGuests < 0 {
		n.MinGuests = 0
	}
	if n.MaxPrice != nil && *n.MaxPrice <= 0 {
		n.MaxPrice = nil
	}
	if n.Limit <= 0 {
		n.Limit = defaultSearchLimit
	}
	if n.Limit > maxSearchLimit {
		n.Limit = maxSearchLimit
	}
	if n.Offset < 0 {
		n.Offset = 0
	}
	return n
}

// Matches applies the filters of normalized params to l. Text matches the
// title, description or city.
func (p SearchParams) Matches(l *Listing) bool {
	if p.OnlyActive && l.State != ListingActive {
		return false
	}
	if p.Host != "" && l.Host != p.Host {
		return false
	}
	if p.City != "" && strings.ToLower(l.City) != p.City {
		return false
	}
	if p.Text != "" {
		haystack := strings.ToLower(l.Title + " " + l.Description + " " + l.City)
		if !strings.Contains(haystack, p.Text) {
			return false
		}
	}
	if p.MinGuests > 0 && !l.Accommodates(p.MinGuests) {
		return false
	}
	if p.MaxPrice != nil && (l.PricePerNight == nil || *l.PricePerNight > *p.MaxPrice) {
		return false
	}
	return true
}

// Page cuts items to the normalized window.
func Page[T any](items []T, p SearchParams) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end]
}
