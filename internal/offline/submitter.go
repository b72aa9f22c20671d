package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSubmitter posts events to the server's sync batch endpoint one at a
// time. An accepted outcome marks the event synced; a rejection or a
// transport failure both count against the retry budget.
type HTTPSubmitter struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPSubmitter(baseURL, token string) *HTTPSubmitter {
	return &HTTPSubmitter{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type syncBatchRequest struct {
	Events []syncEventPayload `json:"events"`
}

type syncEventPayload struct {
	LocalID    string          `json:"local_id"`
	Barcode    string          `json:"barcode"`
	Workflow   string          `json:"workflow"`
	CapturedAt time.Time       `json:"captured_at"`
	Payload    string          `json:"payload,omitempty"`
	Count      json.RawMessage `json:"count,omitempty"`
}

type syncBatchResponse struct {
	Accepted []json.RawMessage `json:"accepted"`
	Rejected []struct {
		Reason string `json:"reason"`
	} `json:"rejected"`
	TotalProcessed int `json:"total_processed"`
}

func (s *HTTPSubmitter) Submit(ctx context.Context, ev ScanEvent) error {
	payload := syncEventPayload{
		LocalID:    ev.ID,
		Barcode:    ev.Barcode,
		Workflow:   ev.Workflow,
		CapturedAt: ev.CapturedAt,
	}
	// Count events carry the submission JSON in Payload; raw scans don't.
	if ev.Payload != "" && json.Valid([]byte(ev.Payload)) {
		payload.Count = json.RawMessage(ev.Payload)
	} else {
		payload.Payload = ev.Payload
	}

	body, err := json.Marshal(syncBatchRequest{Events: []syncEventPayload{payload}})
	if err != nil {
		return fmt.Errorf("marshal sync event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/v1/sync/batch", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("submit sync event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync endpoint returned status %d", resp.StatusCode)
	}

	var out syncBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode sync response: %w", err)
	}
	if len(out.Rejected) > 0 {
		return fmt.Errorf("event rejected: %s", out.Rejected[0].Reason)
	}
	return nil
}
