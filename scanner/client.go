// Package scanner calls the external OCR microservice that reads raid
// screenshots. The service receives an image URL and answers with the gym
// name, egg level or boss, and minutes remaining it could read.
package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/inconshreveable/log15"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     log15.Logger
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log15.New("module", "scanner"),
	}
}

// Enabled reports whether a scanner endpoint is configured at all.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Result is what the OCR service could read off a raid screenshot. Boss is
// empty for an unhatched egg; EggLevel is empty when only the boss was
// readable.
type Result struct {
	GymName  string `json:"gym_name"`
	EggLevel string `json:"egg_level"`
	Boss     string `json:"boss"`
	Minutes  int    `json:"minutes_remaining"`
}

// ScanRaid submits a screenshot by URL and returns the parsed fields.
// Responses are consumed defensively: a well-formed reply with no gym name
// is treated as a failed read.
func (c *Client) ScanRaid(ctx context.Context, imageURL string) (*Result, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("screenshot scanning is not configured")
	}
	body, err := json.Marshal(map[string]string{"image_url": imageURL})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/scan/raid", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scanner request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scanner returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("scanner response malformed: %w", err)
	}
	if result.GymName == "" {
		return nil, fmt.Errorf("scanner could not read a gym name")
	}
	if result.Minutes <= 0 {
		return nil, fmt.Errorf("scanner could not read the timer")
	}
	c.log.Debug("scanned raid screenshot", "gym", result.GymName,
		"level", result.EggLevel, "boss", result.Boss, "minutes", result.Minutes)
	return &result, nil
}
