package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"sync"

	"github.com/bft-labs/rrship/internal/ports"
)

const (
	rrIntervalEndpoint = "/v1/measurements/rr-intervals"
	heartRateEndpoint  = "/v1/measurements/heart-rate"
)

// maxErrorBody limits how much of a failed response is kept in the error.
const maxErrorBody = 512

// SinkConfig contains the measurement service settings.
type SinkConfig struct {
	ServiceURL string
	AuthKey    string
	SessionID  string
	Hostname   string

	// Retries is the number of extra attempts after a transport error
	// or a 5xx response. 4xx responses are never retried.
	Retries int
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed on retry.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type rrIntervalPayload struct {
	SessionID  string  `json:"session_id,omitempty"`
	RRInterval float64 `json:"rr_interval_ms"`
}

type heartRatePayload struct {
	SessionID string `json:"session_id,omitempty"`
	HeartRate int    `json:"heart_rate_bpm"`
}

// Sink implements ports.MeasurementSink by posting JSON to the measurement service.
type Sink struct {
	client ports.HTTPClient
	logger ports.Logger
	config SinkConfig

	// newBackoff is replaced in tests.
	newBackoff func() *backoff

	mu      sync.RWMutex
	authKey string
}

var _ ports.MeasurementSink = (*Sink)(nil)

// NewSink creates a new HTTP measurement sink.
func NewSink(client ports.HTTPClient, logger ports.Logger, config SinkConfig) *Sink {
	config.ServiceURL = strings.TrimRight(config.ServiceURL, "/")
	if config.Retries < 0 {
		config.Retries = 0
	}
	return &Sink{
		client:  client,
		logger:  logger,
		config:  config,
		authKey: config.AuthKey,
		newBackoff: func() *backoff {
			return newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
		},
	}
}

// SetAuthKey replaces the bearer token used for subsequent requests.
func (s *Sink) SetAuthKey(key string) {
	s.mu.Lock()
	s.authKey = key
	s.mu.Unlock()
}

func (s *Sink) currentAuthKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authKey
}

// SaveRRInterval stores one RR interval in milliseconds.
func (s *Sink) SaveRRInterval(ctx context.Context, millis float64) error {
	return s.post(ctx, rrIntervalEndpoint, rrIntervalPayload{
		SessionID:  s.config.SessionID,
		RRInterval: millis,
	})
}

// SaveHeartRate stores one heart rate in beats per minute.
func (s *Sink) SaveHeartRate(ctx context.Context, bpm int) error {
	return s.post(ctx, heartRateEndpoint, heartRatePayload{
		SessionID: s.config.SessionID,
		HeartRate: bpm,
	})
}

func (s *Sink) post(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	bo := s.newBackoff()
	for attempt := 0; ; attempt++ {
		err = s.send(ctx, endpoint, body)
		if err == nil {
			return nil
		}
		if attempt >= s.config.Retries || !retryable(err) {
			return err
		}

		s.logger.Debug("retrying measurement upload",
			ports.Err(err),
			ports.String("endpoint", endpoint),
			ports.Int("attempt", attempt+1),
		)
		if werr := bo.Wait(ctx); werr != nil {
			return fmt.Errorf("%w (retry aborted: %v)", err, werr)
		}
	}
}

func (s *Sink) send(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.ServiceURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.currentAuthKey())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-Hostname", s.config.Hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)
	if s.config.SessionID != "" {
		req.Header.Set("X-Rrship-Session-Id", s.config.SessionID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Temporary()
	}
	return true
}
