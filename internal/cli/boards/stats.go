package boards

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
)

// StatsCmd prints a rolling completion series, per operator or for the team.
type StatsCmd struct {
	Username string `arg:"" optional:"" help:"Operator username. Omit for the whole team."`
	Days     int    `short:"n" help:"Number of days, ending today." default:"7"`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	if c.Days < 1 || c.Days > constants.MaxSeriesDays {
		return fmt.Errorf("--days must be between 1 and %d", constants.MaxSeriesDays)
	}
	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	snap, err := ctx.Loader().Load()
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}

	var series []aggregate.DayStat
	title := "Team"
	users := make([]string, 0, len(snap.Profiles))
	for _, p := range snap.Profiles {
		users = append(users, p.Username)
	}
	if c.Username != "" {
		p, ok := snap.Profile(c.Username)
		if !ok {
			return fmt.Errorf("unknown operator %q", c.Username)
		}
		title = p.DisplayName()
		users = []string{c.Username}
		series, err = snap.Weekly(c.Username, cal.Today(), c.Days)
	} else {
		series, err = snap.TeamWeekly(cal.Today(), c.Days)
	}
	if err != nil {
		return err
	}

	out := ctx.Stdout()
	fmt.Fprintf(out, "%s: last %d day(s), average %d%%\n", title, c.Days, aggregate.Average(series))
	for _, d := range series {
		fmt.Fprintf(out, "  %s %-20s %3d%% (%d/%d)\n", d.Date, bar(d.Rate), d.Rate, d.Completed, d.Scheduled)
	}
	if days := trackedDays(snap.Tracking, users); len(days) > 0 {
		fmt.Fprintf(out, "Tracked since %s (%d day(s) on record)\n", days[0], len(days))
	}
	return nil
}

// trackedDays lists the distinct days with records for users, oldest first.
func trackedDays(tracking map[string]map[string]models.TrackingRecord, users []string) []string {
	seen := map[string]bool{}
	var days []string
	for _, u := range users {
		for _, d := range aggregate.Dates(tracking[u]) {
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
	}
	sort.Strings(days)
	return days
}

func bar(rate int) string {
	n := rate / 5
	if n > 20 {
		n = 20
	}
	return strings.Repeat("█", n) + strings.Repeat("·", 20-n)
}
