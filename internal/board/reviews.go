package board

import (
	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/localstate"
)

// ReviewID identifies a record for review marks.
func ReviewID(username, key string) string {
	return username + "/" + key
}

// Reviews holds the supervisor's review marks as id sets in local state.
type Reviews struct {
	state  *localstate.Store
	oldest func() string
}

func NewReviews(state *localstate.Store) *Reviews {
	return &Reviews{state: state}
}

// Retain limits review marks to records dated on or after oldest(). Marks
// outside the window are dropped on the next mark, and such records read as
// reviewed so they leave the pending lists.
func (r *Reviews) Retain(oldest func() string) *Reviews {
	r.oldest = oldest
	return r
}

func (r *Reviews) mark(key string, ids []string) error {
	if r.oldest == nil {
		_, err := r.state.AddToSet(key, ids...)
		return err
	}
	cutoff := r.oldest()
	_, err := r.state.AddToSetRetaining(key, func(id string) bool {
		return aggregate.DatedSince(id, cutoff)
	}, ids...)
	return err
}

func (r *Reviews) expired(id string) bool {
	return r.oldest != nil && !aggregate.DatedSince(id, r.oldest())
}

func (r *Reviews) MarkReport(ids ...string) error {
	return r.mark(localstate.KeyReviewedReports, ids)
}

func (r *Reviews) MarkJustification(ids ...string) error {
	return r.mark(localstate.KeyReviewedJustifications, ids)
}

func (r *Reviews) ReportReviewed(id string) bool {
	return r.expired(id) || r.state.SetContains(localstate.KeyReviewedReports, id)
}

func (r *Reviews) JustificationReviewed(id string) bool {
	return r.expired(id) || r.state.SetContains(localstate.KeyReviewedJustifications, id)
}
