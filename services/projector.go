package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"card-grading-api/models"

	"gorm.io/gorm"
)

// History event types as exposed to API callers.
const (
	HistoryTypeStatus     = "status"
	HistoryTypeSubmission = "submission"
	HistoryTypeApproval   = "approval"
)

// HistoryEvent is one entry of the merged lifecycle feed. Internal status
// changes carry Status; ledger events carry Hash and BlockNumber.
type HistoryEvent struct {
	Type        string    `json:"type"`
	Status      *string   `json:"status,omitempty"`
	Hash        *string   `json:"hash,omitempty"`
	BlockNumber *uint64   `json:"block_number,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// HistoryFeed is the projector's result. LedgerGap is set when the external
// ledger could not be reached and the feed contains internal events only.
type HistoryFeed struct {
	Events    []HistoryEvent `json:"events"`
	LedgerGap bool           `json:"ledger_gap"`
}

// HistoryProjector derives the combined lifecycle view at read time. Nothing
// is materialized or cached; every call re-queries both sources.
type HistoryProjector struct {
	db     *gorm.DB
	ledger LedgerSource
}

func NewHistoryProjector(db *gorm.DB, ledger LedgerSource) *HistoryProjector {
	return &HistoryProjector{db: db, ledger: ledger}
}

// History returns the submission's transition log merged with the two ledger
// event kinds, ascending by timestamp. A ledger outage degrades to the
// internal feed with LedgerGap set rather than failing the read.
func (p *HistoryProjector) History(ctx context.Context, submissionID int) (*HistoryFeed, error) {
	var exists int64
	if err := p.db.WithContext(ctx).Model(&models.Submission{}).
		Where("submission_id = ?", submissionID).
		Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("%w: check submission: %v", ErrStorage, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, submissionID)
	}

	var rows []models.SubmissionStatusHistory
	if err := p.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: load history: %v", ErrStorage, err)
	}

	internal := make([]HistoryEvent, 0, len(rows))
	for _, row := range rows {
		status := row.NewStatus
		event := HistoryEvent{
			Type:      HistoryTypeStatus,
			Status:    &status,
			Timestamp: row.CreatedAt,
		}
		if row.TxHash != nil {
			event.Hash = row.TxHash
		}
		internal = append(internal, event)
	}

	feed := &HistoryFeed{}
	external, err := p.queryLedger(ctx, submissionID)
	if err != nil {
		log.Printf("history: ledger unavailable for submission %d: %v", submissionID, err)
		feed.LedgerGap = true
	}

	feed.Events = MergeHistory(internal, external)
	return feed, nil
}

func (p *HistoryProjector) queryLedger(ctx context.Context, submissionID int) ([]HistoryEvent, error) {
	if p.ledger == nil {
		return nil, nil
	}

	var external []HistoryEvent
	for _, kind := range []string{LedgerKindSubmission, LedgerKindApproval} {
		events, err := p.ledger.QueryEvents(ctx, submissionID, kind)
		if err != nil {
			return nil, err
		}
		eventType := HistoryTypeSubmission
		if kind == LedgerKindApproval {
			eventType = HistoryTypeApproval
		}
		for _, ev := range events {
			hash := ev.Hash
			block := ev.BlockNumber
			external = append(external, HistoryEvent{
				Type:        eventType,
				Hash:        &hash,
				BlockNumber: &block,
				Timestamp:   ev.Timestamp,
			})
		}
	}
	return external, nil
}

// MergeHistory interleaves internal transition-log entries with external
// ledger events by ascending timestamp. The sort is stable with internal
// events first, so same-instant ties resolve to the authoritative internal
// log; callers should rely only on the overall ascending order.
func MergeHistory(internal, external []HistoryEvent) []HistoryEvent {
	merged := make([]HistoryEvent, 0, len(internal)+len(external))
	merged = append(merged, internal...)
	merged = append(merged, external...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}
