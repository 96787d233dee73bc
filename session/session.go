// Package session keeps the signed-in account and answers network availability queries.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/itiky/blogsync/model"
)

// ErrNotAuthenticated is returned when no token is cached.
var ErrNotAuthenticated = errors.New("not authenticated")

type (
	// Checker reports whether the remote API is reachable.
	Checker func(ctx context.Context) bool

	// Manager holds the session state. It is safe for concurrent use.
	Manager struct {
		sync.RWMutex
		token   *model.AuthToken
		checker Checker
		log     zerolog.Logger
	}
)

// Login caches the token.
func (m *Manager) Login(token model.AuthToken) error {
	if err := token.Validate(); err != nil {
		return fmt.Errorf("token: %w", err)
	}

	m.Lock()
	m.token = &token
	m.Unlock()

	m.log.Info().Int("accountPk", token.AccountPk).Msg("logged in")

	return nil
}

// Logout drops the cached token.
func (m *Manager) Logout() {
	m.Lock()
	m.token = nil
	m.Unlock()

	m.log.Info().Msg("logged out")
}

// CachedToken returns the current token.
func (m *Manager) CachedToken() (model.AuthToken, error) {
	m.RLock()
	defer m.RUnlock()

	if m.token == nil {
		return model.AuthToken{}, ErrNotAuthenticated
	}

	return *m.token, nil
}

// IsConnectedToTheInternet runs the connectivity probe.
func (m *Manager) IsConnectedToTheInternet(ctx context.Context) bool {
	m.RLock()
	checker := m.checker
	m.RUnlock()

	connected := checker(ctx)
	if !connected {
		m.log.Debug().Msg("network unavailable")
	}

	return connected
}

// SetChecker replaces the connectivity probe.
func (m *Manager) SetChecker(checker Checker) {
	if checker == nil {
		return
	}

	m.Lock()
	m.checker = checker
	m.Unlock()
}

// Static returns a Checker with a fixed answer.
func Static(connected bool) Checker {
	return func(context.Context) bool {
		return connected
	}
}

// DialChecker probes the API host with a TCP dial.
func DialChecker(baseURL string, timeout time.Duration) (Checker, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "timeout")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid: %w", "baseURL", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%s: no host", "baseURL")
	}

	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	address := net.JoinHostPort(u.Hostname(), port)

	return func(ctx context.Context) bool {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			return false
		}
		_ = conn.Close()

		return true
	}, nil
}

// NewManager creates a new Manager object, nil checker means always connected.
func NewManager(checker Checker, log zerolog.Logger) *Manager {
	if checker == nil {
		checker = Static(true)
	}

	return &Manager{
		checker: checker,
		log:     log.With().Str("component", "session").Logger(),
	}
}
