package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"card-grading-api/models"
)

// Ledger event kinds, matching the two contract event types the indexer
// exposes.
const (
	LedgerKindSubmission = "submission"
	LedgerKindApproval   = "approval"
)

// LedgerEvent is one entry from the external append-only chain feed.
type LedgerEvent struct {
	Hash         string    `json:"hash"`
	SubmissionID int       `json:"submission_id"`
	Kind         string    `json:"kind"`
	BlockNumber  uint64    `json:"block_number"`
	Timestamp    time.Time `json:"timestamp"`
}

// LedgerSource is the read side of the external ledger. The projector only
// needs this; tests inject fakes.
type LedgerSource interface {
	QueryEvents(ctx context.Context, submissionID int, kind string) ([]LedgerEvent, error)
}

// LedgerWriter records workflow milestones on chain. A transition gated on a
// chain write is aborted when the write fails.
type LedgerWriter interface {
	RecordSubmission(ctx context.Context, sub *models.Submission) (txHash string, err error)
	RecordGrading(ctx context.Context, sub *models.Submission, grade float64) (txHash string, err error)
}

// LedgerClient talks to the chain indexer's REST API. The indexer owns the
// contract interaction; this service only consumes its JSON surface.
type LedgerClient struct {
	baseURL string
	client  *http.Client
}

// NewLedgerClient reads LEDGER_INDEXER_URL. A nil client means the ledger is
// disabled for this deployment (LEDGER_ENABLED unset or not "true").
func NewLedgerClient(client *http.Client) *LedgerClient {
	if os.Getenv("LEDGER_ENABLED") != "true" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &LedgerClient{
		baseURL: os.Getenv("LEDGER_INDEXER_URL"),
		client:  client,
	}
}

func (l *LedgerClient) QueryEvents(ctx context.Context, submissionID int, kind string) ([]LedgerEvent, error) {
	reqURL, err := url.Parse(l.baseURL + "/events")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	query := reqURL.Query()
	query.Set("submission_id", strconv.Itoa(submissionID))
	query.Set("kind", kind)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: indexer status %d body %s", ErrLedgerUnavailable, resp.StatusCode, string(body))
	}

	var decoded struct {
		Events []LedgerEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode indexer response: %v", ErrLedgerUnavailable, err)
	}
	return decoded.Events, nil
}

func (l *LedgerClient) RecordSubmission(ctx context.Context, sub *models.Submission) (string, error) {
	return l.record(ctx, "/submissions", map[string]interface{}{
		"submission_id": sub.SubmissionID,
		"uid":           sub.UID,
		"card_name":     sub.CardName,
	})
}

func (l *LedgerClient) RecordGrading(ctx context.Context, sub *models.Submission, grade float64) (string, error) {
	return l.record(ctx, "/gradings", map[string]interface{}{
		"submission_id": sub.SubmissionID,
		"uid":           sub.UID,
		"grade":         grade,
	})
}

func (l *LedgerClient) record(ctx context.Context, path string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: indexer status %d body %s", ErrLedgerUnavailable, resp.StatusCode, string(raw))
	}

	var decoded struct {
		TxHash string `json:"tx_hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode indexer response: %v", ErrLedgerUnavailable, err)
	}
	if decoded.TxHash == "" {
		return "", fmt.Errorf("%w: indexer returned no tx hash", ErrLedgerUnavailable)
	}
	return decoded.TxHash, nil
}
