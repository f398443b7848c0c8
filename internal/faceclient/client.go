package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VerifyResult contains a 1:1 verification result.
type VerifyResult struct {
	USN        string  `json:"user_id"`
	Verified   bool    `json:"verified"`
	Similarity float64 `json:"similarity"`
	Threshold  float64 `json:"threshold"`
}

// EnrollResult contains a face enrollment response.
type EnrollResult struct {
	USN     string `json:"user_id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Client calls the face recognition microservice. With Skip set every call
// succeeds locally without touching the network.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client with configurable timeout.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // face processing can take time
		},
	}
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

// Verify compares image (a URL or base64 data URL) with the face enrolled for usn.
func (c *Client) Verify(ctx context.Context, usn, image string) (*VerifyResult, error) {
	if c.Skip {
		return &VerifyResult{USN: usn, Verified: true, Similarity: 0.92, Threshold: 0.45}, nil
	}
	if image == "" {
		return nil, fmt.Errorf("image required")
	}
	var out VerifyResult
	if err := c.post(ctx, "/verify", map[string]string{"user_id": usn, "image": image}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Matches adapts Verify to a yes/no answer.
func (c *Client) Matches(ctx context.Context, usn, image string) (bool, error) {
	res, err := c.Verify(ctx, usn, image)
	if err != nil {
		return false, err
	}
	return res.Verified, nil
}

// Enroll adds a stored face image to the recognition gallery.
func (c *Client) Enroll(ctx context.Context, usn, imageURL, name string) (*EnrollResult, error) {
	if c.Skip {
		return &EnrollResult{USN: usn, Success: true, Message: "Face enrolled (mock)"}, nil
	}
	payload := map[string]string{"user_id": usn, "image_url": imageURL}
	if name != "" {
		payload["name"] = name
	}
	var out EnrollResult
	if err := c.post(ctx, "/enroll", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
