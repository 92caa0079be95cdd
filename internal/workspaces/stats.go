package workspaces

import (
	"sort"
	"time"

	"github.com/loganlanou/cowork/internal/backend"
)

// RecentLimit caps the transactions shown on the earnings tab.
const RecentLimit = 5

// HostStats summarises a host's listings and bookings.
type HostStats struct {
	Listings          int
	ActiveListings    int
	TotalBookings     int
	UpcomingBookings  int
	BookingsThisMonth int
	TotalEarnings     float64
	UpcomingPayout    float64
}

// BookingRow is one booking flattened with its listing.
type BookingRow struct {
	WorkspaceID   string
	WorkspaceName string
	Date          time.Time
	Guest         string
	Amount        float64
}

// Stats computes the dashboard figures relative to now. Every booking earns
// the listing's price; "this month" uses now's calendar month and location.
func Stats(listings []backend.Workspace, now time.Time) HostStats {
	var s HostStats
	s.Listings = len(listings)

	for _, w := range listings {
		if w.IsActive() {
			s.ActiveListings++
		}
		for _, b := range w.Bookings {
			s.TotalBookings++
			s.TotalEarnings += w.Price

			if b.Date.After(now) {
				s.UpcomingBookings++
				s.UpcomingPayout += w.Price
			}
			if sameMonth(b.Date, now) {
				s.BookingsThisMonth++
			}
		}
	}
	return s
}

func sameMonth(t, now time.Time) bool {
	t = t.In(now.Location())
	return t.Year() == now.Year() && t.Month() == now.Month()
}

// Bookings flattens every booking across listings, listing order first.
func Bookings(listings []backend.Workspace) []BookingRow {
	var rows []BookingRow
	for _, w := range listings {
		for _, b := range w.Bookings {
			guest := "Unknown"
			if b.Guest != nil && b.Guest.Name != "" {
				guest = b.Guest.Name
			}
			rows = append(rows, BookingRow{
				WorkspaceID:   w.ID,
				WorkspaceName: w.Name,
				Date:          b.Date,
				Guest:         guest,
				Amount:        w.Price,
			})
		}
	}
	return rows
}

// Upcoming returns the bookings after now, soonest first.
func Upcoming(listings []backend.Workspace, now time.Time) []BookingRow {
	var out []BookingRow
	for _, row := range Bookings(listings) {
		if row.Date.After(now) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Recent returns the first RecentLimit bookings.
func Recent(listings []backend.Workspace) []BookingRow {
	rows := Bookings(listings)
	if len(rows) > RecentLimit {
		rows = rows[:RecentLimit]
	}
	return rows
}
