package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"buzz-backend/internal/models"
)

// Client submits reply attempts to the external reply processor
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a new reply-processor client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// SubmitAttempt asks the processor to (re)post the reply for an attempt
func (c *Client) SubmitAttempt(ctx context.Context, attempt *models.ReplyAttempt) error {
	if c.baseURL == "" {
		return fmt.Errorf("reply processor not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"attempt_id": attempt.ID,
		"buzz_id":    attempt.BuzzID,
		"user_id":    attempt.UserID,
		"reply_text": attempt.ReplyText,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/replies", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("processor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("processor returned status %d", resp.StatusCode)
	}

	return nil
}
