package dwell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Reporter delivers a triggered view to the backend: the view request that
// feeds the server-side counter, plus a post_view analytics event carrying
// the dwell duration.
type Reporter struct {
	baseURL  string
	token    string
	clientID string
	http     *http.Client
}

// NewReporter creates a reporter against the given API base URL. token is
// the bearer token of the logged-in reader.
func NewReporter(baseURL, token string) *Reporter {
	return &Reporter{
		baseURL:  baseURL,
		token:    token,
		clientID: uuid.NewString(),
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// ReportView posts the view and its analytics event. The analytics event is
// best effort; a failure there does not fail the view.
func (r *Reporter) ReportView(ctx context.Context, articleID string, dwell time.Duration) error {
	url := fmt.Sprintf("%s/api/v1/articles/%s/view", r.baseURL, articleID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("view request failed: %s", resp.Status)
	}

	_ = r.trackEvent(ctx, articleID, dwell)
	return nil
}

func (r *Reporter) trackEvent(ctx context.Context, articleID string, dwell time.Duration) error {
	payload := map[string]interface{}{
		"event":     "post_view",
		"client_id": r.clientID,
		"post_id":   articleID,
		"duration":  math.Round(dwell.Seconds()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/analytics/track", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("track request failed: %s", resp.Status)
	}
	return nil
}
