// Package session owns the authenticated-user value: startup
// validation, login/register/logout, and single-attempt transparent
// credential refresh. The manager is the only writer; everything else
// reads snapshots.
package session

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/scribehq/scribe-client/pkg/envelope"
)

// Prometheus metrics for session operations.
var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_session_refresh_total",
		Help: "Total credential refresh attempts by outcome",
	}, []string{"outcome"})

	authTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_session_auth_total",
		Help: "Total login and register calls by operation and outcome",
	}, []string{"operation", "outcome"})
)

// State identifies where the session machine currently is.
// Validating and RefreshPending are transient: no operation settles
// while leaving the machine in either.
type State string

const (
	// StateUnauthenticated means no user is present.
	StateUnauthenticated State = "unauthenticated"

	// StateValidating means startup validation is in flight.
	StateValidating State = "validating"

	// StateAuthenticated means a user is present.
	StateAuthenticated State = "authenticated"

	// StateRefreshPending means validation hit an auth failure and the
	// single credential refresh is in flight.
	StateRefreshPending State = "refresh_pending"
)

// Backend endpoints the manager drives.
const (
	endpointMe       = "/users/me"
	endpointLogin    = "/auth/login"
	endpointRegister = "/auth/register"
	endpointLogout   = "/auth/logout"
	endpointRefresh  = "/auth/token/refresh"
)

// Gateway is the request surface the manager needs. *client.Client
// satisfies it.
type Gateway interface {
	Get(ctx context.Context, endpoint string) envelope.Envelope
	Post(ctx context.Context, endpoint string, body any) envelope.Envelope
}

// Session is a read-only snapshot of the session state.
type Session struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	LastError       string
}

// Manager is the session state machine. Create one per application via
// New and share it; all mutation happens here.
type Manager struct {
	gw     Gateway
	logger zerolog.Logger

	mu        sync.Mutex
	state     State
	user      *User
	lastError string

	refreshFlight singleflight.Group
}

// New creates a session manager in the Validating state; call Validate
// once at startup to settle it.
func New(gw Gateway) *Manager {
	return &Manager{
		gw:     gw,
		logger: log.With().Str("component", "session").Logger(),
		state:  StateValidating,
	}
}

// Session returns a point-in-time snapshot.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var user *User
	if m.user != nil {
		u := *m.user
		user = &u
	}
	return Session{
		User:            user,
		IsAuthenticated: m.state == StateAuthenticated,
		IsLoading:       m.state == StateValidating || m.state == StateRefreshPending,
		LastError:       m.lastError,
	}
}

// State returns the current machine state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Validate settles the session at startup: it asks the backend who the
// ambient credentials belong to, and on an auth failure performs exactly
// one transparent refresh followed by one retry. Any other outcome lands
// Unauthenticated. Never returns an error: the result is the state.
func (m *Manager) Validate(ctx context.Context) {
	m.setState(StateValidating)

	env := m.gw.Get(ctx, endpointMe)
	if env.OK() {
		m.settleAuthenticated(env, "validate")
		return
	}

	if env.Failure.Kind != envelope.KindAuth {
		m.logger.Debug().Str("kind", string(env.Failure.Kind)).Msg("Validation failed")
		m.settleUnauthenticated()
		return
	}

	// Expired credential: exactly one refresh, one retry, then give up.
	// Chaining further refreshes here would loop forever on a revoked
	// account.
	m.setState(StateRefreshPending)
	if !m.refresh(ctx) {
		m.settleUnauthenticated()
		return
	}

	retry := m.gw.Get(ctx, endpointMe)
	if retry.OK() {
		m.settleAuthenticated(retry, "validate")
		return
	}
	m.logger.Debug().Msg("Retry after refresh failed")
	m.settleUnauthenticated()
}

// Login authenticates with username and password. On failure the
// session state is untouched and the typed failure is returned for
// display; LastError records the message for passive surfaces.
func (m *Manager) Login(ctx context.Context, username, password string) (*User, error) {
	env := m.gw.Post(ctx, endpointLogin, map[string]string{
		"username": username,
		"password": password,
	})
	return m.applyAuthResult(env, "login")
}

// Register creates an account and authenticates. Failure semantics
// match Login.
func (m *Manager) Register(ctx context.Context, fields RegisterFields) (*User, error) {
	env := m.gw.Post(ctx, endpointRegister, fields)
	return m.applyAuthResult(env, "register")
}

// Logout ends the session. The local session is cleared even when the
// backend call fails; logout is never blocked by the network.
func (m *Manager) Logout(ctx context.Context) {
	env := m.gw.Post(ctx, endpointLogout, nil)
	if !env.OK() {
		m.logger.Warn().
			Str("kind", string(env.Failure.Kind)).
			Msg("Logout request failed, clearing session anyway")
	}
	m.settleUnauthenticated()
}

// UpdateUserInfo merges a profile patch into the stored user without a
// network call, for use after a profile edit succeeded elsewhere.
// No-op when unauthenticated.
func (m *Manager) UpdateUserInfo(patch UserPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.user == nil {
		return
	}
	merged := m.user.merge(patch)
	m.user = &merged
}

// refresh performs the credential refresh. Concurrent callers share one
// flight; the backend sees a single POST.
func (m *Manager) refresh(ctx context.Context) bool {
	ok, _, _ := m.refreshFlight.Do("refresh", func() (any, error) {
		env := m.gw.Post(ctx, endpointRefresh, nil)
		if env.OK() {
			refreshTotal.WithLabelValues("success").Inc()
			m.logger.Debug().Msg("Credential refresh succeeded")
			return true, nil
		}
		refreshTotal.WithLabelValues("failure").Inc()
		m.logger.Debug().
			Str("kind", string(env.Failure.Kind)).
			Msg("Credential refresh failed")
		return false, nil
	})
	return ok.(bool)
}

// applyAuthResult settles a login or register envelope.
func (m *Manager) applyAuthResult(env envelope.Envelope, operation string) (*User, error) {
	if !env.OK() {
		authTotal.WithLabelValues(operation, "failure").Inc()

		m.mu.Lock()
		m.lastError = env.Failure.Message
		m.mu.Unlock()

		m.logger.Debug().
			Str("operation", operation).
			Str("kind", string(env.Failure.Kind)).
			Msg("Auth operation failed")
		return nil, env.Failure
	}

	user, err := decodeUser(env.Success.Data)
	if err != nil {
		authTotal.WithLabelValues(operation, "failure").Inc()
		m.logger.Error().Err(err).Str("operation", operation).Msg("Unusable auth payload")
		return nil, err
	}

	authTotal.WithLabelValues(operation, "success").Inc()

	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = user
	m.lastError = ""
	m.mu.Unlock()

	m.logger.Info().
		Str("operation", operation).
		Str("username", user.Username).
		Msg("Authenticated")
	return user, nil
}

// settleAuthenticated applies a successful /users/me envelope.
func (m *Manager) settleAuthenticated(env envelope.Envelope, operation string) {
	user, err := decodeUser(env.Success.Data)
	if err != nil {
		m.logger.Error().Err(err).Str("operation", operation).Msg("Unusable user payload")
		m.settleUnauthenticated()
		return
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = user
	m.lastError = ""
	m.mu.Unlock()

	m.logger.Info().Str("username", user.Username).Msg("Session validated")
}

func (m *Manager) settleUnauthenticated() {
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.user = nil
	m.mu.Unlock()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
