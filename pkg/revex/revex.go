package revex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html/charset"
)

// HttpClient is the transport seam. Production code passes New();
// tests pass a fake.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	// RequestTimeout bounds each individual bridged request.
	RequestTimeout = 30 * time.Second
	// ReadyTimeout bounds the readiness handshake.
	ReadyTimeout = 15 * time.Second

	statusBodyLimit = 512
)

func New() HttpClient {
	return &http.Client{}
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// IsUnauthorized reports whether err is an authorization failure: HTTP 401
// or a message carrying "Unauthorized". Only these are worth retrying; the
// host session refreshes its token out of band.
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
		return true
	}
	return strings.Contains(err.Error(), "Unauthorized")
}

// ErrNotReady is returned by Get before a successful EnsureReady.
var ErrNotReady = errors.New("revex: session not ready")

// Session is an authenticated GET channel to the platform API. It owns the
// readiness state and the in-flight request table; there is no package-level
// state, so independent sessions never interfere.
type Session struct {
	client  HttpClient
	baseURL string
	token   string
	logger  *slog.Logger

	mu      sync.Mutex
	ready   bool
	pending map[uuid.UUID]string
}

// NewSession builds a session against baseURL using the given bearer token.
// logger may be nil.
func NewSession(client HttpClient, baseURL, token string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		logger:  logger,
		pending: make(map[uuid.UUID]string),
	}
}

// EnsureReady completes the readiness handshake. It must succeed once
// before Get is used; subsequent calls are cheap. The handshake itself
// carries no network traffic, it validates that the session was handed a
// usable transport and token.
func (s *Session) EnsureReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ReadyTimeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if s.client == nil {
		return errors.New("revex: nil transport")
	}
	if s.baseURL == "" {
		return errors.New("revex: empty base url")
	}
	if s.token == "" {
		return errors.New("revex: empty token")
	}
	s.ready = true
	s.logger.Debug("revex session ready", "base_url", s.baseURL)
	return nil
}

// Get issues an authenticated GET for path and returns the decoded body.
// Each call runs under its own request id and the fixed per-request
// timeout; non-2xx responses come back as *StatusError.
func (s *Session) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	reqID := uuid.New()
	s.pending[reqID] = path
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, reqID)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")

	s.logger.Debug("revex get", "request_id", reqID, "path", path)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	encoding := strings.ToLower(resp.Header.Get("Content-Encoding"))
	if encoding != "" {
		body, err = decodeBody(body, encoding)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" {
		reader, err := charset.NewReader(bytes.NewReader(body), contentType)
		if err == nil {
			body, err = io.ReadAll(reader)
			if err != nil {
				return nil, fmt.Errorf("convert %s: %w", path, err)
			}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > statusBodyLimit {
			snippet = snippet[:statusBodyLimit]
		}
		return nil, &StatusError{Status: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// InFlight reports the number of requests currently pending.
func (s *Session) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
