// Package session owns the bearer token lifecycle. A Manager is created once
// and injected wherever auth state is needed; it is the only writer of the
// token store.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/blogmind-client/internal/domain"
	"github.com/samvad-hq/blogmind-client/internal/logger"
	"github.com/samvad-hq/blogmind-client/internal/storage"
	"github.com/samvad-hq/blogmind-client/pkg/api"
)

const (
	// CookieName is the name of the derived cookie mirror.
	CookieName = "token"
	// CookieTTL is the lifetime of the derived cookie mirror.
	CookieTTL = 7 * 24 * time.Hour
)

// ErrNotSignedIn is returned by operations that need a session.
var ErrNotSignedIn = errors.New("not signed in")

// EventKind tells subscribers what changed.
type EventKind int

const (
	EventSignedIn EventKind = iota
	EventSignedOut
	EventProfileUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventSignedIn:
		return "signed_in"
	case EventSignedOut:
		return "signed_out"
	default:
		return "profile_updated"
	}
}

// Event is delivered to subscribers after every state change.
type Event struct {
	Kind EventKind
	User *domain.User
	// Reason is set for EventSignedOut ("logout", "unauthorized", "probe_failed").
	Reason string
}

// AuthAPI is the subset of the API the manager drives.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.AuthToken, error)
	Register(ctx context.Context, in domain.Registration) (*domain.AuthToken, error)
	CurrentUser(ctx context.Context) (*domain.User, error)
	UpdateUser(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error)
}

// Manager holds the current user and the token store.
type Manager struct {
	store storage.Store
	auth  AuthAPI
	log   logger.Logger
	now   func() time.Time

	// tokenMu serializes writes to the token store.
	tokenMu sync.Mutex

	mu   sync.RWMutex
	user *domain.User

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// NewManager builds a Manager over store, talking to auth.
func NewManager(store storage.Store, auth AuthAPI, log logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store must not be nil")
	}
	if auth == nil {
		return nil, fmt.Errorf("auth api must not be nil")
	}
	return &Manager{
		store: store,
		auth:  auth,
		log:   logger.Ensure(log),
		now:   time.Now,
		subs:  make(map[int]func(Event)),
	}, nil
}

// Bind wires the manager into client as its token source and unauthorized handler.
func (m *Manager) Bind(client *api.Client) {
	client.SetTokenSource(m)
	client.OnUnauthorized(m.handleUnauthorized)
}

// Token implements api.TokenSource from the canonical store.
func (m *Manager) Token() string {
	token, ok, err := m.store.LoadToken()
	if err != nil {
		m.log.WarnObj("session token load failed", "session_error", map[string]any{
			"error": err.Error(),
		})
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// Init probes a stored token. A token the server rejects is cleared; a
// missing token leaves the manager signed out. Network failures keep the
// token and are returned.
func (m *Manager) Init(ctx context.Context) error {
	if m.Token() == "" {
		return nil
	}

	user, err := m.auth.CurrentUser(ctx)
	if err != nil {
		if kind, ok := api.KindOf(err); ok {
			switch kind {
			case api.KindUnauthorized:
				// handleUnauthorized already cleared the store.
				return nil
			case api.KindForbidden, api.KindNotFound:
				return m.signOut("probe_failed")
			}
		}
		return fmt.Errorf("probe stored session: %w", err)
	}

	m.setUser(user)
	m.notify(Event{Kind: EventSignedIn, User: user})
	return nil
}

// Login signs in with credentials and persists the returned token.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	tok, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, tok)
}

// Register creates an account and signs in when the server returns a token.
func (m *Manager) Register(ctx context.Context, in domain.Registration) (*domain.User, error) {
	tok, err := m.auth.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, fmt.Errorf("register returned no response")
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return tok.User, nil
	}
	return m.establish(ctx, tok)
}

// establish stores tok and resolves the user, fetching it if the response had none.
func (m *Manager) establish(ctx context.Context, tok *domain.AuthToken) (*domain.User, error) {
	if tok == nil || strings.TrimSpace(tok.AccessToken) == "" {
		return nil, fmt.Errorf("auth response carried no access token")
	}
	m.tokenMu.Lock()
	err := m.store.SaveToken(tok.AccessToken, tokenExpiry(tok.AccessToken))
	m.tokenMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("persist session token: %w", err)
	}

	user := tok.User
	if user == nil {
		u, err := m.auth.CurrentUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("load signed-in user: %w", err)
		}
		user = u
	}

	m.setUser(user)
	m.notify(Event{Kind: EventSignedIn, User: user})
	m.log.InfoObj("session established", "session", map[string]any{
		"user_id": user.ID,
	})
	return user, nil
}

// UpdateProfile changes profile fields and merges the result into the current user.
func (m *Manager) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error) {
	if !m.Authenticated() && m.Token() == "" {
		return nil, ErrNotSignedIn
	}
	updated, err := m.auth.UpdateUser(ctx, in)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	merged := mergeUser(m.user, updated)
	m.user = merged
	m.mu.Unlock()

	m.notify(Event{Kind: EventProfileUpdated, User: merged})
	return merged, nil
}

// Logout clears the stored token and notifies subscribers.
func (m *Manager) Logout() error {
	return m.signOut("logout")
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Authenticated reports whether a user is loaded.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// Cookie derives the read-only cookie mirror of the stored token, or nil
// when signed out.
func (m *Manager) Cookie() *http.Cookie {
	token := m.Token()
	if token == "" {
		return nil
	}
	expires := m.now().Add(CookieTTL)
	if exp := tokenExpiry(token); !exp.IsZero() && exp.Before(expires) {
		expires = exp
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		SameSite: http.SameSiteLaxMode,
	}
}

// Subscribe registers fn for state changes and returns its deregistration.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		})
	}
}

// handleUnauthorized runs for every authenticated call that came back 401.
// Only the first rejection of the stored token tears the session down;
// concurrent calls rejected with the same token find it already gone.
func (m *Manager) handleUnauthorized(token string, e *api.Error) {
	cleared, err := m.clearSession(token)
	if !cleared {
		return
	}
	m.log.WarnObj("session rejected by server", "session_unauthorized", map[string]any{
		"method": e.Method,
		"path":   e.Path,
	})
	if err != nil {
		m.log.ErrorObj("session clear failed", "session_error", map[string]any{
			"error": err.Error(),
		})
	}
	m.notify(Event{Kind: EventSignedOut, Reason: "unauthorized"})
}

func (m *Manager) signOut(reason string) error {
	_, err := m.clearSession("")
	m.notify(Event{Kind: EventSignedOut, Reason: reason})
	return err
}

// clearSession drops the stored token and the loaded user. With a non-empty
// rejected token it does nothing unless that token is still the stored one.
func (m *Manager) clearSession(rejected string) (bool, error) {
	m.tokenMu.Lock()
	defer m.tokenMu.Unlock()
	if rejected != "" && m.Token() != rejected {
		return false, nil
	}

	err := m.store.ClearToken()

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()

	if err != nil {
		return true, fmt.Errorf("clear session token: %w", err)
	}
	return true, nil
}

func (m *Manager) setUser(u *domain.User) {
	m.mu.Lock()
	m.user = u
	m.mu.Unlock()
}

func (m *Manager) notify(evt Event) {
	m.subMu.Lock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(evt)
	}
}

// mergeUser overlays non-empty fields of update onto base.
func mergeUser(base, update *domain.User) *domain.User {
	if base == nil {
		return update
	}
	if update == nil {
		return base
	}
	out := *base
	if update.ID != "" {
		out.ID = update.ID
	}
	if update.Email != "" {
		out.Email = update.Email
	}
	if update.Name != "" {
		out.Name = update.Name
	}
	if update.Bio != "" {
		out.Bio = update.Bio
	}
	if update.Avatar != "" {
		out.Avatar = update.Avatar
	}
	if update.UpdatedAt != nil {
		out.UpdatedAt = update.UpdatedAt
	}
	return &out
}
