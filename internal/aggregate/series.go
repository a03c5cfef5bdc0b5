package aggregate

import (
	"fmt"
	"math"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/utils"
)

// DayStat is one day of a completion series.
type DayStat struct {
	Date      string `json:"date"`
	Scheduled int    `json:"scheduled"`
	Completed int    `json:"completed"`
	Rate      int    `json:"rate"`
}

// Rate returns round(100*completed/scheduled), or 0 when nothing is scheduled.
func Rate(completed, scheduled int) int {
	if scheduled <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(scheduled)))
}

// WeeklySeries computes the last days calendar days ending at today, oldest
// first. Scheduled and completed counts come from the operator's current
// schedule for every day, so a day never exceeds 100%; historical snapshots are
// not consulted. Days without records are zero rows.
func WeeklySeries(blocks []models.ScheduleBlock, all map[string]models.TrackingRecord, today string, days int) ([]DayStat, error) {
	if days <= 0 {
		days = constants.DefaultSeriesDays
	}
	if days > constants.MaxSeriesDays {
		return nil, fmt.Errorf("series length %d exceeds maximum of %d days", days, constants.MaxSeriesDays)
	}

	scheduled := models.TotalTasks(blocks)
	series := make([]DayStat, 0, days)
	for offset := days - 1; offset >= 0; offset-- {
		date, err := utils.ShiftDay(today, -offset)
		if err != nil {
			return nil, err
		}
		completed, _ := DayProgress(blocks, SliceByDate(all, date))
		series = append(series, DayStat{
			Date:      date,
			Scheduled: scheduled,
			Completed: completed,
			Rate:      Rate(completed, scheduled),
		})
	}
	return series, nil
}

// Combine sums aligned series (same dates, same order) into a team-wide series.
func Combine(series ...[]DayStat) []DayStat {
	var out []DayStat
	for _, s := range series {
		if out == nil {
			out = make([]DayStat, len(s))
			for i, d := range s {
				out[i] = DayStat{Date: d.Date}
			}
		}
		for i := range out {
			if i >= len(s) {
				break
			}
			out[i].Scheduled += s[i].Scheduled
			out[i].Completed += s[i].Completed
		}
	}
	for i := range out {
		out[i].Rate = Rate(out[i].Completed, out[i].Scheduled)
	}
	return out
}

// Average returns the mean rate of a series, rounded.
func Average(series []DayStat) int {
	if len(series) == 0 {
		return 0
	}
	sum := 0
	for _, d := range series {
		sum += d.Rate
	}
	return int(math.Round(float64(sum) / float64(len(series))))
}

// DayProgress returns how many of the day's scheduled tasks are completed,
// counting only tasks the blocks still carry.
func DayProgress(blocks []models.ScheduleBlock, slice map[string]models.TrackingRecord) (done, total int) {
	for _, b := range blocks {
		total += len(b.Tasks)
		if rec, ok := slice[b.ID]; ok {
			done += b.CompletedCount(&rec)
		}
	}
	return done, total
}
