// Package status derives a block's display state from the wall-clock hour.
package status

import (
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
)

// Derive returns the status of block at nowHour given its record for the day,
// which may be nil. Rules are checked in order and the first match wins:
//
//  1. non-empty block whose tasks are all completed: done
//  2. break block whose hour has passed: done
//  3. block hour equals nowHour: current
//  4. non-empty block whose hour has passed: late
//  5. otherwise: future
func Derive(block models.ScheduleBlock, rec *models.TrackingRecord, nowHour int) constants.BlockStatus {
	switch {
	case block.IsComplete(rec):
		return constants.StatusDone
	case block.IsBreak() && block.Hour < nowHour:
		return constants.StatusDone
	case block.Hour == nowHour:
		return constants.StatusCurrent
	case !block.IsBreak() && block.Hour < nowHour:
		return constants.StatusLate
	default:
		return constants.StatusFuture
	}
}

// Counts tallies statuses across a day's blocks.
type Counts struct {
	Future  int `json:"future"`
	Current int `json:"current"`
	Late    int `json:"late"`
	Done    int `json:"done"`
}

// Add records one status.
func (c *Counts) Add(s constants.BlockStatus) {
	switch s {
	case constants.StatusFuture:
		c.Future++
	case constants.StatusCurrent:
		c.Current++
	case constants.StatusLate:
		c.Late++
	case constants.StatusDone:
		c.Done++
	}
}

// Total returns the number of statuses recorded.
func (c Counts) Total() int {
	return c.Future + c.Current + c.Late + c.Done
}
