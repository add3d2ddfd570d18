package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"card-grading-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkflowEngine applies validated transitions. The status write and the
// history append commit as one transaction; a chain write gating an edge
// happens inside that transaction, before commit, so a failed external write
// leaves no local state behind.
type WorkflowEngine struct {
	db        *gorm.DB
	validator *TransitionValidator
	ledger    LedgerWriter
}

// NewWorkflowEngine wires the engine. ledger may be nil (chain recording
// disabled); gated edges then commit locally without a tx hash.
func NewWorkflowEngine(db *gorm.DB, validator *TransitionValidator, ledger LedgerWriter) *WorkflowEngine {
	return &WorkflowEngine{db: db, validator: validator, ledger: ledger}
}

// CreateSubmission inserts a new submission in Submitted, assigns uid = id,
// and writes the first history row, all in one transaction. When the ledger
// is enabled the creation event is recorded on chain before commit.
func (e *WorkflowEngine) CreateSubmission(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	now := time.Now()
	sub.Status = models.StatusSubmitted
	sub.SubmittedAt = now
	sub.UpdatedAt = now

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("%w: create submission: %v", ErrStorage, err)
		}

		// The public certificate id equals the row id.
		sub.UID = sub.SubmissionID
		updates := map[string]interface{}{"uid": sub.UID}

		if e.ledger != nil {
			hash, err := e.ledger.RecordSubmission(ctx, sub)
			if err != nil {
				return err
			}
			sub.TxHash = &hash
			updates["tx_hash"] = hash
		}

		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", sub.SubmissionID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("%w: assign uid: %v", ErrStorage, err)
		}

		history := models.SubmissionStatusHistory{
			SubmissionID: sub.SubmissionID,
			NewStatus:    models.StatusSubmitted,
			ChangedBy:    sub.UserID,
			TxHash:       sub.TxHash,
			CreatedAt:    now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("%w: append history: %v", ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ApplyTransition moves a submission to targetStatus. The row is locked for
// the duration of the transaction, so concurrent requests on the same
// submission serialize at the storage layer.
func (e *WorkflowEngine) ApplyTransition(ctx context.Context, submissionID int, targetStatus string, payload *TransitionPayload, authResult string, changedBy int) (*models.Submission, error) {
	if payload == nil {
		payload = &TransitionPayload{}
	}

	var sub models.Submission
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("submission_id = ?", submissionID).
			First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrNotFound, submissionID)
			}
			return fmt.Errorf("%w: load submission: %v", ErrStorage, err)
		}

		resolved, err := e.validator.Validate(&sub, targetStatus, payload, authResult)
		if err != nil {
			return err
		}

		now := time.Now()
		updates := e.buildUpdates(resolved, payload, now)

		if resolved.Edge.RequiresLedgerWrite && e.ledger != nil {
			grade := 0.0
			if payload.Grade != nil {
				grade = *payload.Grade
			}
			hash, err := e.ledger.RecordGrading(ctx, &sub, grade)
			if err != nil {
				return err
			}
			updates[FieldTxHash] = hash
		}

		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("%w: update submission: %v", ErrStorage, err)
		}

		oldStatus := sub.Status
		history := models.SubmissionStatusHistory{
			SubmissionID: submissionID,
			OldStatus:    &oldStatus,
			NewStatus:    resolved.Edge.To,
			ChangedBy:    changedBy,
			CreatedAt:    now,
		}
		if hash, ok := updates[FieldTxHash].(string); ok {
			history.TxHash = &hash
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("%w: append history: %v", ErrStorage, err)
		}

		applyUpdates(&sub, updates)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// buildUpdates collects the column writes for one edge. Only fields in the
// edge's contract are touched; everything else on the row stays as it is.
func (e *WorkflowEngine) buildUpdates(resolved *ResolvedTransition, payload *TransitionPayload, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"status":     resolved.Edge.To,
		"updated_at": now,
	}

	fields := make([]string, 0, len(resolved.Edge.RequiredFields)+len(resolved.Edge.OptionalFields))
	fields = append(fields, resolved.Edge.RequiredFields...)
	fields = append(fields, resolved.Edge.OptionalFields...)

	for _, field := range fields {
		if !payload.has(field) {
			continue
		}
		switch field {
		case FieldReturnMethod:
			// Written below from the resolved value.
		case FieldGrade:
			updates[field] = *payload.Grade
		case FieldGradeCorners:
			updates[field] = *payload.GradeCorners
		case FieldGradeEdges:
			updates[field] = *payload.GradeEdges
		case FieldGradeSurface:
			updates[field] = *payload.GradeSurface
		case FieldGradeCentering:
			updates[field] = *payload.GradeCentering
		case FieldTrackingProvider:
			updates[field] = *payload.TrackingProvider
		case FieldTrackingNumber:
			updates[field] = *payload.TrackingNumber
		case FieldDeliveryAddress:
			updates[field] = *payload.DeliveryAddress
		case FieldSlabbingProofImage:
			updates[field] = *payload.SlabbingProofImage
		case FieldTxHash:
			updates[field] = *payload.TxHash
		}
	}

	if resolved.ReturnMethod != "" {
		updates[FieldReturnMethod] = resolved.ReturnMethod
	}

	for _, field := range resolved.Edge.ClearFields {
		updates[field] = nil
	}

	return updates
}

// applyUpdates mirrors the column writes onto the in-memory row so the
// caller gets the post-transition submission without a reload.
func applyUpdates(sub *models.Submission, updates map[string]interface{}) {
	for column, value := range updates {
		switch column {
		case "status":
			sub.Status = value.(string)
		case "updated_at":
			sub.UpdatedAt = value.(time.Time)
		case FieldReturnMethod:
			v := value.(string)
			sub.ReturnMethod = &v
		case FieldGrade:
			v := value.(float64)
			sub.Grade = &v
		case FieldGradeCorners:
			v := value.(float64)
			sub.GradeCorners = &v
		case FieldGradeEdges:
			v := value.(float64)
			sub.GradeEdges = &v
		case FieldGradeSurface:
			v := value.(float64)
			sub.GradeSurface = &v
		case FieldGradeCentering:
			v := value.(float64)
			sub.GradeCentering = &v
		case FieldTrackingProvider:
			if value == nil {
				sub.TrackingProvider = nil
			} else {
				v := value.(string)
				sub.TrackingProvider = &v
			}
		case FieldTrackingNumber:
			if value == nil {
				sub.TrackingNumber = nil
			} else {
				v := value.(string)
				sub.TrackingNumber = &v
			}
		case FieldDeliveryAddress:
			if value == nil {
				sub.DeliveryAddress = nil
			} else {
				v := value.(string)
				sub.DeliveryAddress = &v
			}
		case FieldSlabbingProofImage:
			v := value.(string)
			sub.SlabbingProofImage = &v
		case FieldTxHash:
			v := value.(string)
			sub.TxHash = &v
		}
	}
}
