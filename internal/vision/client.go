package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"claimguard/internal/claims/models"
	"claimguard/pkg/platform/sentinel"
)

const maxResponseBytes = 1 << 20

// ClientConfig configures the HTTP scorer client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond throttles calls to the scorer; zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// Client calls POST {base}/v1/assessments.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type assessRequest struct {
	ImageHandle string `json:"image_handle"`
}

type assessResponse struct {
	Severity   string   `json:"severity"`
	Confidence float64  `json:"confidence"`
	Features   []string `json:"features"`
}

type scorerError struct {
	Error string `json:"error"`
}

// NewClient creates a scorer client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("vision base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 5
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c, nil
}

// Assess scores the image behind imageRef.
func (c *Client) Assess(ctx context.Context, imageRef string) (models.VisionAssessment, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return models.VisionAssessment{}, fmt.Errorf("vision throttle: %w", sentinel.ErrTimeout)
		}
	}

	body, err := json.Marshal(assessRequest{ImageHandle: imageRef})
	if err != nil {
		return models.VisionAssessment{}, fmt.Errorf("marshal assessment request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/assessments", bytes.NewReader(body))
	if err != nil {
		return models.VisionAssessment{}, fmt.Errorf("create assessment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.VisionAssessment{}, fmt.Errorf("vision request: %w", sentinel.ErrTimeout)
		}
		return models.VisionAssessment{}, unavailable("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.VisionAssessment{}, unavailable("read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		var se scorerError
		if json.Unmarshal(payload, &se) == nil && se.Error != "" {
			return models.VisionAssessment{}, unavailable("scorer returned %d: %s", resp.StatusCode, se.Error)
		}
		return models.VisionAssessment{}, unavailable("scorer returned %d", resp.StatusCode)
	}

	var out assessResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return models.VisionAssessment{}, unavailable("decode response: %v", err)
	}
	severity, err := models.ParseSeverity(out.Severity)
	if err != nil {
		return models.VisionAssessment{}, unavailable("scorer returned unknown severity %q", out.Severity)
	}
	assessment := models.VisionAssessment{Severity: severity, Confidence: out.Confidence, Features: out.Features}
	if err := validate(assessment); err != nil {
		return models.VisionAssessment{}, err
	}
	return assessment, nil
}
