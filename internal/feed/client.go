package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/roach88/rwtracker/internal/model"
)

// DefaultBaseURL is the public ransomware.live API.
const DefaultBaseURL = "https://api.ransomware.live"

// maxBodyBytes bounds a single feed response.
const maxBodyBytes = 64 << 20

// Config holds feed client settings.
type Config struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	Retries   int           `yaml:"retries" json:"retries"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   30 * time.Second,
		Retries:   3,
		UserAgent: "rwtracker/1.0",
	}
}

// NewHTTPClient returns a client with bounded dial and handshake timeouts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// HTTPSource fetches JSON victim lists over HTTP.
type HTTPSource struct {
	cfg     Config
	client  *http.Client
	backoff time.Duration
	logger  *slog.Logger
}

var _ Source = (*HTTPSource)(nil)

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPSource) {
		s.client = c
	}
}

// WithBackoff sets the first retry delay. Later delays double.
func WithBackoff(d time.Duration) Option {
	return func(s *HTTPSource) {
		s.backoff = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *HTTPSource) {
		s.logger = l
	}
}

// NewHTTPSource creates a feed source. Zero config fields fall back to
// DefaultConfig values.
func NewHTTPSource(cfg Config, opts ...Option) *HTTPSource {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	s := &HTTPSource{
		cfg:     cfg,
		client:  NewHTTPClient(cfg.Timeout),
		backoff: 500 * time.Millisecond,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backoff <= 0 {
		s.backoff = time.Millisecond
	}
	return s
}

func (s *HTTPSource) Name() string { return "ransomware.live" }

// Fetch retrieves and decodes the records at path. Transport failures,
// 429 and 5xx responses are retried with exponential backoff; other
// failures return immediately. Every failure is a *FetchError.
func (s *HTTPSource) Fetch(ctx context.Context, path string) ([]model.Record, error) {
	url := s.cfg.BaseURL + path

	var records []model.Record
	b := retry.WithMaxRetries(uint64(s.cfg.Retries), retry.NewExponential(s.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		recs, err := s.fetchOnce(ctx, url)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) && fe.Temporary {
				s.logger.WarnContext(ctx, "feed fetch failed, retrying", "url", url, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		records = recs
		return nil
	})
	if err != nil {
		if !IsTransientFetch(err) {
			err = &FetchError{URL: url, Err: err}
		}
		return nil, err
	}
	return records, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context, url string) ([]model.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Temporary: ctx.Err() == nil, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Temporary:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))),
		}
	}

	records, dropped, err := DecodeItems(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if dropped > 0 {
		s.logger.WarnContext(ctx, "dropped feed items without published value", "url", url, "dropped", dropped)
	}
	s.logger.DebugContext(ctx, "feed fetched", "url", url, "records", len(records))
	return records, nil
}
