package mcp

import (
	"fmt"
	"strings"

	"github.com/internhub/internhub/pkg/models"
)

const dateLayout = "2006-01-02"

func formatListings(positions []models.PositionListing) string {
	if len(positions) == 0 {
		return "No active positions."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-20s %-28s %-16s %-10s\n", "Position ID", "Startup", "Title", "Location", "Deadline")
	b.WriteString(strings.Repeat("-", 114) + "\n")
	for _, p := range positions {
		fmt.Fprintf(&b, "%-36s %-20s %-28s %-16s %-10s\n",
			p.ID, p.StartupName, p.Title, p.Location, p.Deadline.Format(dateLayout))
	}
	return b.String()
}

func formatStartupPositions(positions []models.Position) string {
	if len(positions) == 0 {
		return "No positions found for this startup."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-28s %-8s %-10s %12s\n", "Position ID", "Title", "Status", "Deadline", "Applications")
	b.WriteString(strings.Repeat("-", 98) + "\n")
	for _, p := range positions {
		fmt.Fprintf(&b, "%-36s %-28s %-8s %-10s %12d\n",
			p.ID, p.Title, p.Status, p.Deadline.Format(dateLayout), p.ApplicationsCount)
	}
	return b.String()
}

func formatStartups(startups []models.Startup) string {
	if len(startups) == 0 {
		return "No startups registered."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-24s %-16s %s\n", "Startup ID", "Name", "Domain", "Website")
	b.WriteString(strings.Repeat("-", 100) + "\n")
	for _, s := range startups {
		fmt.Fprintf(&b, "%-36s %-24s %-16s %s\n", s.ID, s.Name, s.Domain, s.Website)
	}
	return b.String()
}

func formatStudentApplications(apps []models.StudentApplication) string {
	if len(apps) == 0 {
		return "No applications found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-28s %-9s %-10s\n", "Startup", "Position", "Status", "Applied")
	b.WriteString(strings.Repeat("-", 74) + "\n")
	for _, a := range apps {
		fmt.Fprintf(&b, "%-24s %-28s %-9s %-10s\n",
			a.Position.Startup.Name, a.Position.Title, a.Status, a.AppliedAt.Format(dateLayout))
		writeCoverLetter(&b, a.CoverLetter)
	}
	return b.String()
}

func formatStartupApplications(apps []models.StartupApplication) string {
	if len(apps) == 0 {
		return "No applications found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-28s %-24s %-9s\n", "Application ID", "Position", "Student", "Status")
	b.WriteString(strings.Repeat("-", 100) + "\n")
	for _, a := range apps {
		name := a.StudentName
		if name == "" {
			name = a.StudentID
		}
		fmt.Fprintf(&b, "%-36s %-28s %-24s %-9s\n", a.ID, a.PositionTitle, name, a.Status)
		writeCoverLetter(&b, a.CoverLetter)
	}
	return b.String()
}

// writeCoverLetter indents a cover letter under its application row.
func writeCoverLetter(b *strings.Builder, letter string) {
	if letter == "" {
		return
	}
	for _, line := range strings.Split(letter, "\n") {
		fmt.Fprintf(b, "    > %s\n", line)
	}
}

func formatActivity(events []models.ActivityEvent) string {
	if len(events) == 0 {
		return "No activity recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-28s %s\n", "Time", "Event", "Detail")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	for _, e := range events {
		fmt.Fprintf(&b, "%-20s %-28s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Kind, e.Detail)
	}
	return b.String()
}

func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Query Cache\n"+
		"  Entries:       %d\n"+
		"  Hits:          %d\n"+
		"  Misses:        %d\n"+
		"  Hit Rate:      %.1f%%\n"+
		"  Fetch Errors:  %d\n"+
		"  Invalidations: %d\n",
		stats.Entries, stats.Hits, stats.Misses, hitRate, stats.FetchErrors, stats.Invalidations)
}
