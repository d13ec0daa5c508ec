package kea

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"keaview/internal/stats"
)

const maxResponseSize = 10 * 1024 * 1024 // 10 MB

// DefaultRetries is the number of times a "not ready yet" response is retried.
const DefaultRetries = 5

var subnetRe = regexp.MustCompile(`^subnet\[(\d+)\]\.(.+)$`)

// ErrNotReady is returned when the server kept answering 202 Accepted
// after all retries.
var ErrNotReady = errors.New("kea: result not ready, refresh later")

// Client queries the Kea Control Agent API.
type Client struct {
	URL        string
	HTTPClient *http.Client
	Retries    int

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Kea API client with the given URL and timeout.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Retries: DefaultRetries,
		sleep:   sleepContext,
	}
}

// RetryDelay returns the wait before retry number attempt (0-based):
// 1s, 3s, 7s, 15s, ...
func RetryDelay(attempt int) time.Duration {
	return time.Duration(1<<(attempt+1)-1) * time.Second
}

// Budget returns the longest time a single command may take: every
// attempt running into the HTTP timeout plus all retry delays.
func (c *Client) Budget() time.Duration {
	var timeout time.Duration
	if c.HTTPClient != nil {
		timeout = c.HTTPClient.Timeout
	}
	budget := time.Duration(c.Retries+1) * timeout
	for attempt := 0; attempt < c.Retries; attempt++ {
		budget += RetryDelay(attempt)
	}
	return budget
}

// Command sends a command to the given services and returns the first
// response. A non-zero result is returned as an error.
func (c *Client) Command(ctx context.Context, command string, service ...string) (*Response, error) {
	resp, err := c.query(ctx, command, service)
	if err != nil {
		return nil, err
	}

	if resp.Result != 0 {
		return nil, fmt.Errorf("kea returned error result %d: %s", resp.Result, resp.Text)
	}
	return resp, nil
}

// GetStats queries statistic-get-all and returns parsed stats.
func (c *Client) GetStats(ctx context.Context, service ...string) (*Stats, error) {
	resp, err := c.Command(ctx, "statistic-get-all", service...)
	if err != nil {
		return nil, err
	}

	return parseArguments(resp.Arguments)
}

// GetConfig queries config-get and returns its arguments, for instance
// {"Dhcp4": {...}, "hash": "..."}.
func (c *Client) GetConfig(ctx context.Context, service ...string) (map[string]json.RawMessage, error) {
	resp, err := c.Command(ctx, "config-get", service...)
	if err != nil {
		return nil, err
	}
	return resp.Arguments, nil
}

// GetVersion queries version-get and returns the reported version.
func (c *Client) GetVersion(ctx context.Context, service ...string) (string, error) {
	resp, err := c.Command(ctx, "version-get", service...)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// GetRawJSON sends a command and returns the raw JSON response.
func (c *Client) GetRawJSON(ctx context.Context, command string, service ...string) ([]byte, error) {
	return c.post(ctx, command, service)
}

func (c *Client) query(ctx context.Context, command string, service []string) (*Response, error) {
	data, err := c.post(ctx, command, service)
	if err != nil {
		return nil, err
	}

	// Handle array-wrapped response: [{"result": 0, ...}]
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var responses []Response
		if err := json.Unmarshal(data, &responses); err != nil {
			return nil, fmt.Errorf("parsing array response: %w", err)
		}
		if len(responses) == 0 {
			return nil, fmt.Errorf("empty response array")
		}
		return &responses[0], nil
	}

	var keaResp Response
	if err := json.Unmarshal(data, &keaResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &keaResp, nil
}

// post sends the command, retrying while the server answers 202 Accepted.
func (c *Client) post(ctx context.Context, command string, service []string) ([]byte, error) {
	body, err := json.Marshal(Request{Command: command, Service: service})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("connecting to kea: %w", err)
		}

		if resp.StatusCode == http.StatusAccepted {
			resp.Body.Close()
			if attempt >= c.Retries {
				return nil, ErrNotReady
			}
			sleep := c.sleep
			if sleep == nil {
				sleep = sleepContext
			}
			if err := sleep(ctx, RetryDelay(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		data, err := readBody(resp)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kea returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// parseArguments extracts counter values from Kea's stat format.
// Each stat is: "name": [[value, "timestamp"], ...] — we take [0][0].
func parseArguments(args map[string]json.RawMessage) (*Stats, error) {
	result := &Stats{
		Global:  make(stats.Statistics),
		Subnets: make(map[int64]stats.Statistics),
	}

	for key, raw := range args {
		value, ok := extractValue(raw)
		if !ok {
			continue
		}

		if matches := subnetRe.FindStringSubmatch(key); matches != nil {
			subnetID, err := strconv.ParseInt(matches[1], 10, 64)
			if err != nil {
				continue
			}
			fieldName := matches[2]
			if result.Subnets[subnetID] == nil {
				result.Subnets[subnetID] = make(stats.Statistics)
			}
			result.Subnets[subnetID][fieldName] = value
		} else {
			result.Global[key] = value
		}
	}

	return result, nil
}

// extractValue parses [[value, "timestamp"], ...] and returns the first
// value as decimal text. Numbers are not converted so that counters
// beyond 64 bits keep every digit.
func extractValue(raw json.RawMessage) (string, bool) {
	var dataPoints [][]json.RawMessage
	if err := json.Unmarshal(raw, &dataPoints); err != nil {
		return "", false
	}
	if len(dataPoints) == 0 || len(dataPoints[0]) == 0 {
		return "", false
	}

	dec := json.NewDecoder(bytes.NewReader(dataPoints[0][0]))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}

	// Non-numeric (e.g. string) — skip
	n, ok := v.(json.Number)
	if !ok {
		return "", false
	}
	return n.String(), true
}
