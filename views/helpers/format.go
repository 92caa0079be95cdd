package helpers

import (
	"fmt"
	"math"
	"strings"
	"time"

	twmerge "github.com/Oudwins/tailwind-merge-go"
)

// FormatInt formats an integer as a string
func FormatInt(n int) string {
	return fmt.Sprintf("%d", n)
}

// FormatPrice formats whole dollars without decimals (e.g., 20 -> "$20",
// 12.5 -> "$12.50")
func FormatPrice(amount float64) string {
	if amount == math.Trunc(amount) {
		return fmt.Sprintf("$%.0f", amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

// FormatDate formats a time.Time as "Jan 2, 2006"
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("Jan 2, 2006")
}

// FormatFloat formats a float with specified decimal places
func FormatFloat(f float64, decimals int) string {
	return fmt.Sprintf("%.*f", decimals, f)
}

// UserTypeLabel is the display name of a user type. Users without one
// are hosts from before user types existed.
func UserTypeLabel(userType string) string {
	switch userType {
	case "business":
		return "Business"
	case "individual":
		return "Individual"
	default:
		return "Host"
	}
}

const badgeBase = "inline-flex items-center px-2 py-0.5 text-xs font-semibold uppercase tracking-wide"

// StatusBadgeClass returns the classes for a listing status badge. Extra
// classes override the defaults.
func StatusBadgeClass(status string, extra ...string) string {
	tone := "bg-zinc-200 text-zinc-700"
	if status == "active" {
		tone = "bg-emerald-100 text-emerald-800"
	}
	return twmerge.Merge(append([]string{badgeBase, tone}, extra...)...)
}

// RoleBadgeClass returns the classes for a user role badge.
func RoleBadgeClass(role string, extra ...string) string {
	tone := "bg-zinc-100 text-zinc-800"
	if role == "admin" {
		tone = "bg-black text-white"
	}
	return twmerge.Merge(append([]string{badgeBase, tone}, extra...)...)
}

// TabClass returns the classes of a dashboard navigation tab.
func TabClass(active bool, extra ...string) string {
	classes := []string{"flex flex-col items-center gap-1 text-xs text-zinc-400 hover:text-white"}
	if active {
		classes = append(classes, "text-white")
	}
	return twmerge.Merge(append(classes, extra...)...)
}

// Classes merges class lists, later ones winning on conflicts.
func Classes(classes ...string) string {
	return twmerge.Merge(strings.Join(classes, " "))
}
