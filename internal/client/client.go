package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

const maxResponseBytes = 1 << 16

// Client talks to the rover command API.
type Client struct {
	baseURL string
	http    *http.Client
}

type armBody struct {
	Joints arm.Position `json:"joints"`
}

type errorBody struct {
	Error string `json:"error"`
}

// New creates a client for a rover at baseURL, e.g. http://rover.local:8080.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// DriveCommand sends a two-sided power request.
func (c *Client) DriveCommand(ctx context.Context, cmd drive.Command) error {
	return c.do(ctx, http.MethodPost, "/api/v1/drive", cmd, nil)
}

// StopCommand zeroes both sides.
func (c *Client) StopCommand(ctx context.Context) error {
	return c.DriveCommand(ctx, drive.Command{})
}

// MoveArmCommand applies relative joint deltas and returns the new targets.
func (c *Client) MoveArmCommand(ctx context.Context, deltas []int) (arm.Position, error) {
	var out armBody

	err := c.do(ctx, http.MethodPost, "/api/v1/arm/move", map[string][]int{"deltas": deltas}, &out)

	return out.Joints, err
}

// ResetArmCommand moves the arm to its base pose.
func (c *Client) ResetArmCommand(ctx context.Context) (arm.Position, error) {
	var out armBody

	err := c.do(ctx, http.MethodPost, "/api/v1/arm/reset", nil, &out)

	return out.Joints, err
}

// ArmPositionQuery returns the current joint targets.
func (c *Client) ArmPositionQuery(ctx context.Context) (arm.Position, error) {
	var out armBody

	err := c.do(ctx, http.MethodGet, "/api/v1/arm", nil, &out)

	return out.Joints, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var e errorBody
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}

		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUnexpectedResponse, path, err)
	}

	return nil
}
