package report

import (
	"time"

	"github.com/MananAlchemy/JiraBridge-sub000/internal/domain"
	"github.com/MananAlchemy/JiraBridge-sub000/internal/format"
)

// WeeklyStats is a read-only rollup over the trailing 7 calendar days.
type WeeklyStats struct {
	TotalTimeSeconds     int
	TotalTimeFormatted   string
	TotalScreenshots     int
	AverageTimeSeconds   int
	AverageTimeFormatted string
	DaysTracked          int
	MostProductiveDay    string // date key; empty when nothing was tracked
}

// Weekly computes stats over the aggregates whose date falls within the 7
// calendar days ending at today, inclusive. Screenshots sum over the whole
// window; days without tracked time do not count toward the average, and
// an empty window yields a zero average rather than dividing by zero.
func Weekly(days []*domain.DailyAggregate, today time.Time) WeeklyStats {
	from := today.AddDate(0, 0, -6).Format(domain.DateKeyLayout)
	to := today.Format(domain.DateKeyLayout)

	var stats WeeklyStats
	bestSeconds := 0
	for _, day := range days {
		if day.DateKey < from || day.DateKey > to {
			continue
		}
		stats.TotalScreenshots += day.ScreenshotCount
		if day.TotalTimeSeconds <= 0 {
			continue
		}
		stats.TotalTimeSeconds += day.TotalTimeSeconds
		stats.DaysTracked++
		if day.TotalTimeSeconds > bestSeconds {
			bestSeconds = day.TotalTimeSeconds
			stats.MostProductiveDay = day.DateKey
		}
	}

	if stats.DaysTracked > 0 {
		stats.AverageTimeSeconds = stats.TotalTimeSeconds / stats.DaysTracked
	}
	stats.TotalTimeFormatted = format.Duration(stats.TotalTimeSeconds)
	stats.AverageTimeFormatted = format.Duration(stats.AverageTimeSeconds)
	return stats
}
