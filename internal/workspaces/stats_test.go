package workspaces

import (
	"testing"
	"time"

	"github.com/loganlanou/cowork/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booking(id string, date time.Time, guest string) backend.Booking {
	b := backend.Booking{ID: id, Date: date}
	if guest != "" {
		b.Guest = &backend.Guest{Name: guest}
	}
	return b
}

func TestStats(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	desk := mockWorkspace("desk", "Austin", "1", 20)
	desk.Bookings = []backend.Booking{
		booking("b1", now.AddDate(0, 0, -10), "Ann"), // earlier this month
		booking("b2", now.AddDate(0, 0, 3), "Bo"),    // later this month
		booking("b3", now.AddDate(0, 2, 0), ""),      // upcoming, July
	}
	room := mockWorkspace("room", "Austin", "8", 50)
	room.Status = backend.StatusInactive
	room.Bookings = []backend.Booking{
		booking("b4", now.AddDate(-1, 0, 0), "Cy"), // same month last year
	}

	s := Stats([]backend.Workspace{desk, room}, now)

	assert.Equal(t, 2, s.Listings)
	assert.Equal(t, 1, s.ActiveListings)
	assert.Equal(t, 4, s.TotalBookings)
	assert.Equal(t, 2, s.UpcomingBookings)
	assert.Equal(t, 2, s.BookingsThisMonth)
	assert.InDelta(t, 110.0, s.TotalEarnings, 0.001)
	assert.InDelta(t, 40.0, s.UpcomingPayout, 0.001)
}

func TestStats_Empty(t *testing.T) {
	assert.Equal(t, HostStats{}, Stats(nil, time.Now()))
}

func TestBookingsAndUpcoming(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	desk := mockWorkspace("desk", "Austin", "1", 20)
	desk.Bookings = []backend.Booking{
		booking("late", now.AddDate(0, 1, 0), "Ann"),
		booking("past", now.AddDate(0, -1, 0), ""),
		booking("soon", now.AddDate(0, 0, 1), "Bo"),
	}

	rows := Bookings([]backend.Workspace{desk})
	require.Len(t, rows, 3)
	assert.Equal(t, "Unknown", rows[1].Guest)
	assert.Equal(t, desk.Name, rows[0].WorkspaceName)
	assert.Equal(t, 20.0, rows[0].Amount)

	upcoming := Upcoming([]backend.Workspace{desk}, now)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Bo", upcoming[0].Guest)
	assert.Equal(t, "Ann", upcoming[1].Guest)
}

func TestRecent_Capped(t *testing.T) {
	desk := mockWorkspace("desk", "Austin", "1", 20)
	for i := 0; i < 8; i++ {
		desk.Bookings = append(desk.Bookings, booking("b", time.Now(), "G"))
	}

	assert.Len(t, Recent([]backend.Workspace{desk}), RecentLimit)
}
