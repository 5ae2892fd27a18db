// Package faceclient calls the face recognition microservice over HTTP.
// The base URL is fixed at construction; there is no process-wide mutable
// endpoint.
package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"classlogger/internal/apperr"
)

// Open-set sentinels returned by /predict when no enrolled identity matches.
const (
	LabelUnknown = "unknown"
	LabelNoFace  = "no_face"
)

// DefaultTimeout is sized for full-resolution selfie uploads.
const DefaultTimeout = 60 * time.Second

// Client calls the face recognition service.
type Client struct {
	baseURL string
	http    *http.Client
	skip    bool
}

// New creates a client for the given base URL. With skip set, every call
// returns a permissive mock so the rest of the stack runs without the
// service (dev only).
func New(baseURL string, timeout time.Duration, skip bool) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		skip:    skip,
		http:    &http.Client{Timeout: timeout},
	}
}

// Predict submits raw selfie bytes to /predict and returns the open-set
// label (an enrolled identity, or a sentinel) with its confidence in [0,1].
func (c *Client) Predict(ctx context.Context, image []byte) (label string, confidence float64, err error) {
	if c.skip {
		return LabelUnknown, 0, nil
	}
	if len(image) == 0 {
		return "", 0, apperr.New(apperr.Validation, "selfie image required")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "selfie.jpg")
	if err != nil {
		return "", 0, err
	}
	if _, err := part.Write(image); err != nil {
		return "", 0, err
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &buf)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := c.do(req, &out); err != nil {
		return "", 0, err
	}
	return out.Label, out.Confidence, nil
}

// CheckName reports whether the given label is already enrolled server-side.
// Called before account creation during student registration.
func (c *Client) CheckName(ctx context.Context, name string) (bool, error) {
	if c.skip {
		return true, nil
	}

	body, _ := json.Marshal(map[string]string{"name": name})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check-name", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Exists  bool   `json:"exists"`
		Message string `json:"message"`
	}
	if err := c.do(req, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

// UpdateLabel relabels an enrolled face from the registration name to the
// account id, once the account exists.
func (c *Client) UpdateLabel(ctx context.Context, oldLabel, newLabel string) error {
	if c.skip {
		return nil
	}

	body, _ := json.Marshal(map[string]string{
		"old_label": oldLabel,
		"new_label": newLabel,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update-label", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(req, &out); err != nil {
		return err
	}
	if !out.Success {
		return apperr.Newf(apperr.Verification, "relabel rejected: %s", out.Message)
	}
	return nil
}

// Health checks whether the face service is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c.skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.Network, "face service unavailable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return apperr.Newf(apperr.Network, "face service unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.Network, "face service request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return apperr.Newf(apperr.Network, "face service error %s: %s", resp.Status, string(bodyBytes))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode face service response: %w", err)
	}
	return nil
}
