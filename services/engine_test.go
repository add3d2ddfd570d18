package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"card-grading-api/config"
	"card-grading-api/models"
)

var (
	selectForUpdatePattern  = regexp.MustCompile("SELECT \\* FROM `submissions` WHERE submission_id = .*FOR UPDATE")
	updateSubmissionPattern = regexp.MustCompile("UPDATE `submissions` SET")
	insertHistoryPattern    = regexp.MustCompile("INSERT INTO `submission_status_history`")
	insertSubmissionPattern = regexp.MustCompile("INSERT INTO `submissions`")
)

type stubLedger struct {
	hash string
	err  error
}

func (s *stubLedger) RecordSubmission(ctx context.Context, sub *models.Submission) (string, error) {
	return s.hash, s.err
}

func (s *stubLedger) RecordGrading(ctx context.Context, sub *models.Submission, grade float64) (string, error) {
	return s.hash, s.err
}

func newTestEngine(t *testing.T, steps []*queryStep, ledger LedgerWriter) (*WorkflowEngine, *scriptedDB, func()) {
	t.Helper()
	db, state, cleanup := newScriptedGormDB(t, steps)
	validator := NewTransitionValidator(config.GradeScale{Min: 1, Max: 10, Step: 0.5})
	return NewWorkflowEngine(db, validator, ledger), state, cleanup
}

func submissionRow(status string) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: selectForUpdatePattern,
		columns: []string{"submission_id", "uid", "user_id", "card_name", "status"},
		rows:    [][]driver.Value{{int64(1), int64(1), int64(5), "Charizard Base Set", status}},
	}
}

func TestApplyTransitionPersistsStatusAndHistory(t *testing.T) {
	steps := []*queryStep{
		submissionRow(models.StatusSubmitted),
		{kind: kindExec, pattern: updateSubmissionPattern},
		{kind: kindExec, pattern: insertHistoryPattern},
	}
	engine, state, cleanup := newTestEngine(t, steps, nil)
	defer cleanup()

	sub, err := engine.ApplyTransition(context.Background(), 1, models.StatusAuthentication, nil, "", 9)
	if err != nil {
		t.Fatalf("ApplyTransition returned error: %v", err)
	}
	if sub.Status != models.StatusAuthentication {
		t.Fatalf("expected status %q, got %q", models.StatusAuthentication, sub.Status)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyTransitionPickupRoundTrip(t *testing.T) {
	steps := []*queryStep{
		submissionRow(models.StatusSlabbing),
		{kind: kindExec, pattern: updateSubmissionPattern},
		{kind: kindExec, pattern: insertHistoryPattern},
	}
	engine, state, cleanup := newTestEngine(t, steps, nil)
	defer cleanup()

	payload := &TransitionPayload{
		SlabbingProofImage: strPtr("https://proofs.example/slab-1.jpg"),
		ReturnMethod:       strPtr(models.ReturnMethodPickup),
	}
	sub, err := engine.ApplyTransition(context.Background(), 1, models.StatusReadyForReturn, payload, "", 9)
	if err != nil {
		t.Fatalf("ApplyTransition returned error: %v", err)
	}
	if sub.ReturnMethod == nil || *sub.ReturnMethod != models.ReturnMethodPickup {
		t.Fatalf("expected return method pickup, got %v", sub.ReturnMethod)
	}
	if sub.SlabbingProofImage == nil || *sub.SlabbingProofImage != *payload.SlabbingProofImage {
		t.Fatalf("expected proof image to persist, got %v", sub.SlabbingProofImage)
	}
	if sub.TrackingNumber != nil {
		t.Fatalf("pickup submission must not carry a tracking number, got %v", *sub.TrackingNumber)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyTransitionClearsDeliveryFieldsOnPickup(t *testing.T) {
	method := models.ReturnMethodPickup
	row := submissionRow(models.StatusReadyForReturn)
	row.columns = append(row.columns, "return_method", "tracking_number")
	row.rows = [][]driver.Value{{int64(1), int64(1), int64(5), "Charizard Base Set", models.StatusReadyForReturn, method, "STALE-1"}}

	steps := []*queryStep{
		row,
		{kind: kindExec, pattern: updateSubmissionPattern},
		{kind: kindExec, pattern: insertHistoryPattern},
	}
	engine, state, cleanup := newTestEngine(t, steps, nil)
	defer cleanup()

	sub, err := engine.ApplyTransition(context.Background(), 1, models.StatusReadyForPickup, nil, "", 9)
	if err != nil {
		t.Fatalf("ApplyTransition returned error: %v", err)
	}
	if sub.Status != models.StatusReadyForPickup {
		t.Fatalf("expected Ready for Pickup, got %q", sub.Status)
	}
	if sub.TrackingNumber != nil {
		t.Fatalf("delivery-only fields must be cleared on the pickup edge, got %v", *sub.TrackingNumber)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyTransitionTerminalStateWritesNothing(t *testing.T) {
	steps := []*queryStep{
		submissionRow(models.StatusCompleted),
	}
	engine, state, cleanup := newTestEngine(t, steps, nil)
	defer cleanup()

	_, err := engine.ApplyTransition(context.Background(), 1, models.StatusShipped, nil, "", 9)
	if !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyTransitionNotFound(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: selectForUpdatePattern,
			columns: []string{"submission_id"},
			rows:    [][]driver.Value{},
		},
	}
	engine, state, cleanup := newTestEngine(t, steps, nil)
	defer cleanup()

	_, err := engine.ApplyTransition(context.Background(), 42, models.StatusAuthentication, nil, "", 9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestGradingTransitionAbortsWhenLedgerWriteFails(t *testing.T) {
	steps := []*queryStep{
		submissionRow(models.StatusGradingAssigned),
	}
	ledgerErr := fmt.Errorf("%w: indexer status 503", ErrLedgerUnavailable)
	engine, state, cleanup := newTestEngine(t, steps, &stubLedger{err: ledgerErr})
	defer cleanup()

	payload := fullGrades()
	_, err := engine.ApplyTransition(context.Background(), 1, models.StatusSlabbing, payload, "", 9)
	if !errors.Is(err, ErrLedgerUnavailable) {
		t.Fatalf("expected ErrLedgerUnavailable, got %v", err)
	}
	// No UPDATE or INSERT steps were scripted: a failed chain write must not
	// touch the row.
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestGradingTransitionStoresLedgerHash(t *testing.T) {
	steps := []*queryStep{
		submissionRow(models.StatusGradingAssigned),
		{kind: kindExec, pattern: updateSubmissionPattern},
		{kind: kindExec, pattern: insertHistoryPattern},
	}
	engine, state, cleanup := newTestEngine(t, steps, &stubLedger{hash: "0xabc123"})
	defer cleanup()

	sub, err := engine.ApplyTransition(context.Background(), 1, models.StatusSlabbing, fullGrades(), "", 9)
	if err != nil {
		t.Fatalf("ApplyTransition returned error: %v", err)
	}
	if sub.TxHash == nil || *sub.TxHash != "0xabc123" {
		t.Fatalf("expected tx hash to persist, got %v", sub.TxHash)
	}
	if sub.Grade == nil || *sub.Grade != 9.5 {
		t.Fatalf("expected grade 9.5, got %v", sub.Grade)
	}
	if sub.GradeCentering == nil || *sub.GradeCentering != 9.5 {
		t.Fatalf("expected centering 9.5, got %v", sub.GradeCentering)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateSubmissionAssignsUIDEqualToID(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: insertSubmissionPattern,
			result:  scriptedResult{lastInsertID: 7, rowsAffected: 1},
		},
		{kind: kindExec, pattern: updateSubmissionPattern},
		{kind: kindExec, pattern: insertHistoryPattern},
	}
	engine, state, cleanup := newTestEngine(t, steps, nil)
	defer cleanup()

	sub, err := engine.CreateSubmission(context.Background(), &models.Submission{
		UserID:   5,
		CardName: "Pikachu Illustrator",
	})
	if err != nil {
		t.Fatalf("CreateSubmission returned error: %v", err)
	}
	if sub.SubmissionID != 7 || sub.UID != 7 {
		t.Fatalf("expected uid == id == 7, got id %d uid %d", sub.SubmissionID, sub.UID)
	}
	if sub.Status != models.StatusSubmitted {
		t.Fatalf("expected Submitted, got %q", sub.Status)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}
