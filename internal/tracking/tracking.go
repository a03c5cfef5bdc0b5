// Package tracking applies operator actions to tracking records: task
// toggles, reports, delay justifications and attachments.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/julianstephens/opsboard/internal/activity"
	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/constants"
	apperrors "github.com/julianstephens/opsboard/internal/errors"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
	"github.com/julianstephens/opsboard/internal/utils"
)

const (
	MaxReportLength      = 4000
	MaxAttachmentBytes   = 5 << 20
	MaxAttachmentsPerDay = 20
)

var (
	ErrUnknownBlock = errors.New("block is not on the operator's schedule")
	ErrUnknownTask  = errors.New("task does not belong to the block")
)

// Store is the slice of storage the tracking service needs.
type Store interface {
	GetSchedule(username string) ([]models.ScheduleBlock, error)
	GetTrackingRecord(username, key string) (models.TrackingRecord, error)
	UpsertTrackingRecord(models.TrackingRecord) error
}

// Justification is a delay explanation filed against a block.
type Justification struct {
	Reason   constants.DelayReason
	Report   string
	Escalate bool
}

type Service struct {
	store    Store
	recorder *activity.Recorder
	cal      utils.Calendar
}

func NewService(store Store, recorder *activity.Recorder, cal utils.Calendar) *Service {
	return &Service{store: store, recorder: recorder, cal: cal}
}

// Key returns the tracking key of blockID for today.
func (s *Service) Key(blockID string) string {
	return aggregate.TrackingKey(s.cal.Today(), blockID)
}

// Record returns the record under key, or an empty one when none exists yet.
func (s *Service) Record(username, key string) (models.TrackingRecord, error) {
	rec, err := s.store.GetTrackingRecord(username, key)
	if errors.Is(err, storage.ErrNotFound) {
		return models.TrackingRecord{Key: key, Username: username}, nil
	}
	return rec, err
}

// ToggleTask flips taskID of blockID in today's record and reports whether the
// task is now completed.
func (s *Service) ToggleTask(ctx context.Context, actor, username, blockID, taskID string) (models.TrackingRecord, bool, error) {
	if blockID == "" {
		return models.TrackingRecord{}, false, apperrors.Invalid("block", "block id is required")
	}
	if taskID == "" {
		return models.TrackingRecord{}, false, apperrors.Invalid("task", "task id is required")
	}

	block, err := s.block(username, blockID)
	if err != nil {
		return models.TrackingRecord{}, false, err
	}
	if !block.HasTask(taskID) {
		return models.TrackingRecord{}, false, fmt.Errorf("%s/%s: %w", blockID, taskID, ErrUnknownTask)
	}

	var done bool
	rec, err := s.mutate(username, s.Key(blockID), func(r *models.TrackingRecord) error {
		done = r.Toggle(taskID)
		return nil
	})
	if err != nil {
		return rec, false, err
	}

	verb := "unchecked"
	if done {
		verb = "checked"
	}
	s.publish(ctx, actor, constants.ActionTaskToggled, fmt.Sprintf("%s %s %s (%d/%d)",
		rec.Key, verb, taskID, block.CompletedCount(&rec), len(block.Tasks)))
	return rec, done, nil
}

// SetReport saves report text without submitting it. A justification keeps
// its reason and only its report text changes.
func (s *Service) SetReport(ctx context.Context, actor, username, key, report string) (models.TrackingRecord, error) {
	report, err := validateReport(key, report)
	if err != nil {
		return models.TrackingRecord{}, err
	}
	if err := s.scheduled(username, key); err != nil {
		return models.TrackingRecord{}, err
	}
	rec, err := s.mutate(username, key, func(r *models.TrackingRecord) error {
		setReport(&r.Note, report)
		return nil
	})
	if err != nil {
		return rec, err
	}
	s.publish(ctx, actor, constants.ActionReportSaved, key)
	return rec, nil
}

// SubmitReport saves report and marks it sent.
func (s *Service) SubmitReport(ctx context.Context, actor, username, key, report string) (models.TrackingRecord, error) {
	report, err := validateReport(key, report)
	if err != nil {
		return models.TrackingRecord{}, err
	}
	if report == "" {
		return models.TrackingRecord{}, apperrors.Invalid("report", "cannot submit an empty report")
	}
	if err := s.scheduled(username, key); err != nil {
		return models.TrackingRecord{}, err
	}
	rec, err := s.mutate(username, key, func(r *models.TrackingRecord) error {
		setReport(&r.Note, report)
		r.ReportSent = true
		return nil
	})
	if err != nil {
		return rec, err
	}
	s.publish(ctx, actor, constants.ActionReportSubmitted, key)
	return rec, nil
}

// Justify files a delay justification, replacing any earlier one.
func (s *Service) Justify(ctx context.Context, actor, username, key string, j Justification) (models.TrackingRecord, error) {
	if !j.Reason.Valid() {
		return models.TrackingRecord{}, apperrors.Invalid("reason", "unknown delay reason %q", j.Reason)
	}
	report, err := validateReport(key, j.Report)
	if err != nil {
		return models.TrackingRecord{}, err
	}
	if j.Reason == constants.ReasonOther && report == "" {
		return models.TrackingRecord{}, apperrors.Invalid("report", "reason %q needs an explanation", j.Reason)
	}
	if err := s.scheduled(username, key); err != nil {
		return models.TrackingRecord{}, err
	}

	at := s.cal.Instant()
	rec, err := s.mutate(username, key, func(r *models.TrackingRecord) error {
		r.Note = models.Note{
			Kind:         constants.NoteJustification,
			Report:       report,
			Reason:       j.Reason,
			IsImpossible: j.Reason == constants.ReasonImpossibleToDo,
			Escalated:    j.Escalate,
			JustifiedAt:  &at,
		}
		return nil
	})
	if err != nil {
		return rec, err
	}
	s.publish(ctx, actor, constants.ActionJustified, fmt.Sprintf("%s %s", key, j.Reason))
	return rec, nil
}

// Attach appends a blob to the record. Attachments are never removed.
func (s *Service) Attach(ctx context.Context, actor, username, key, name, mimeType string, data []byte) (models.TrackingRecord, error) {
	if _, _, ok := aggregate.SplitKey(key); !ok {
		return models.TrackingRecord{}, apperrors.Invalid("key", "malformed tracking key %q", key)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.TrackingRecord{}, apperrors.Invalid("name", "attachment name is required")
	}
	if len(data) == 0 {
		return models.TrackingRecord{}, apperrors.Invalid("data", "attachment is empty")
	}
	if len(data) > MaxAttachmentBytes {
		return models.TrackingRecord{}, apperrors.Invalid("data", "attachment is %d bytes, limit is %d", len(data), MaxAttachmentBytes)
	}
	if err := s.scheduled(username, key); err != nil {
		return models.TrackingRecord{}, err
	}

	at := s.cal.Instant()
	rec, err := s.mutate(username, key, func(r *models.TrackingRecord) error {
		if len(r.Attachments) >= MaxAttachmentsPerDay {
			return apperrors.Invalid("data", "record already has %d attachments", len(r.Attachments))
		}
		r.Attachments = append(r.Attachments, models.Attachment{Name: name, MimeType: mimeType, Data: data, AddedAt: at})
		return nil
	})
	if err != nil {
		return rec, err
	}
	s.publish(ctx, actor, constants.ActionAttachmentAdded, fmt.Sprintf("%s %s", key, name))
	return rec, nil
}

func (s *Service) block(username, blockID string) (models.ScheduleBlock, error) {
	blocks, err := s.store.GetSchedule(username)
	if err != nil {
		return models.ScheduleBlock{}, err
	}
	for _, b := range blocks {
		if b.ID == blockID {
			return b, nil
		}
	}
	return models.ScheduleBlock{}, fmt.Errorf("%s/%s: %w", username, blockID, ErrUnknownBlock)
}

// scheduled rejects keys whose block is not on the operator's schedule.
func (s *Service) scheduled(username, key string) error {
	_, blockID, ok := aggregate.SplitKey(key)
	if !ok {
		return apperrors.Invalid("key", "malformed tracking key %q", key)
	}
	_, err := s.block(username, blockID)
	return err
}

// mutate reads the record under key (creating it when absent), applies fn,
// stamps it and upserts the whole row.
func (s *Service) mutate(username, key string, fn func(*models.TrackingRecord) error) (models.TrackingRecord, error) {
	rec, err := s.Record(username, key)
	if err != nil {
		return models.TrackingRecord{}, err
	}
	rec = rec.Clone()
	if err := fn(&rec); err != nil {
		return models.TrackingRecord{}, err
	}
	rec.UpdatedAt = s.cal.Instant()
	if err := s.store.UpsertTrackingRecord(rec); err != nil {
		return models.TrackingRecord{}, err
	}
	return rec, nil
}

func (s *Service) publish(ctx context.Context, actor string, action constants.ActivityAction, detail string) {
	s.recorder.Changed(ctx, constants.TopicTracking, detail)
	s.recorder.Record(ctx, actor, action, detail)
}

func validateReport(key, report string) (string, error) {
	if _, _, ok := aggregate.SplitKey(key); !ok {
		return "", apperrors.Invalid("key", "malformed tracking key %q", key)
	}
	report = strings.TrimSpace(report)
	if utf8.RuneCountInString(report) > MaxReportLength {
		return "", apperrors.Invalid("report", "report exceeds %d characters", MaxReportLength)
	}
	return report, nil
}

func setReport(n *models.Note, report string) {
	if n.IsJustification() {
		n.Report = report
		return
	}
	*n = models.PlainNote(report)
}
