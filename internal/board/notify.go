package board

import (
	"context"
	"fmt"

	"github.com/julianstephens/opsboard/internal/notifier"
	"github.com/julianstephens/opsboard/internal/utils"
)

// PassResult is the outcome of one notification pass.
type PassResult struct {
	Late           notifier.Result
	Justifications notifier.Result
}

// NotifyPass announces today's late blocks and unreviewed justifications.
// The dispatcher's dedup sets keep repeated passes from re-sending.
func NotifyPass(ctx context.Context, snap *Snapshot, cal utils.Calendar, d *notifier.Dispatcher, reviewed func(id string) bool) (PassResult, error) {
	var res PassResult
	if snap == nil {
		return res, fmt.Errorf("no board data loaded")
	}

	days := snap.Days(cal.Today(), cal.Hour(), nil)
	late, err := d.NotifyLate(ctx, LatePairs(days))
	res.Late = late
	if err != nil {
		return res, fmt.Errorf("late notices: %w", err)
	}

	just, err := d.NotifyJustifications(ctx, Notices(PendingJustifications(snap, reviewed)))
	res.Justifications = just
	if err != nil {
		return res, fmt.Errorf("justification notices: %w", err)
	}
	return res, nil
}
