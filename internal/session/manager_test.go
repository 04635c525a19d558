package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/blogmind-client/internal/domain"
	"github.com/samvad-hq/blogmind-client/internal/storage"
	"github.com/samvad-hq/blogmind-client/pkg/api"
)

// countingStore wraps a memory store and counts ClearToken calls.
type countingStore struct {
	storage.Store
	mu     sync.Mutex
	clears int
}

func (c *countingStore) ClearToken() error {
	c.mu.Lock()
	c.clears++
	c.mu.Unlock()
	return c.Store.ClearToken()
}

func (c *countingStore) clearCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

type fixture struct {
	client  *api.Client
	manager *Manager
	store   *countingStore
	events  *[]Event
}

func newFixture(t *testing.T, h http.HandlerFunc) fixture {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client, err := api.New(api.Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	mem, err := storage.NewStore("memory", "", storage.Options{TokenTTL: time.Hour})
	require.NoError(t, err)
	store := &countingStore{Store: mem}

	m, err := NewManager(store, client.Auth, nil)
	require.NoError(t, err)
	m.Bind(client)

	var mu sync.Mutex
	events := []Event{}
	m.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	return fixture{client: client, manager: m, store: store, events: &events}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-signing-key-at-least-32-bytes-long"))
	require.NoError(t, err)
	return s
}

func TestLoginPersistsTokenAndNotifies(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			writeJSON(w, http.StatusOK, domain.AuthToken{
				AccessToken: "tok-1",
				TokenType:   "bearer",
				User:        &domain.User{ID: "u1", Name: "Ada"},
			})
		case "/api/users/me":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, domain.User{ID: "u1", Name: "Ada"})
		}
	})

	user, err := f.manager.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, f.manager.Authenticated())
	assert.Equal(t, "tok-1", f.manager.Token())

	// Subsequent calls carry the stored token.
	_, err = f.client.Auth.CurrentUser(context.Background())
	require.NoError(t, err)

	require.Len(t, *f.events, 1)
	assert.Equal(t, EventSignedIn, (*f.events)[0].Kind)
}

func TestLoginFailureIsRealFailure(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
	})

	user, err := f.manager.Login(context.Background(), "ada@example.com", "bad")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Nil(t, user)
	assert.False(t, f.manager.Authenticated())
	assert.Empty(t, f.manager.Token())
	assert.Empty(t, *f.events)
}

func TestUnauthorizedClearsSessionExactlyOnce(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
	})
	require.NoError(t, f.store.SaveToken("expired", time.Time{}))

	_, err := f.client.Blogs.Mine(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	assert.Equal(t, 1, f.store.clearCount())
	assert.Empty(t, f.manager.Token())
	require.Len(t, *f.events, 1)
	assert.Equal(t, EventSignedOut, (*f.events)[0].Kind)
	assert.Equal(t, "unauthorized", (*f.events)[0].Reason)

	// With the token gone the next 401 is anonymous and does not clear again.
	_, err = f.client.Blogs.Mine(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, 1, f.store.clearCount())
}

func TestConcurrentUnauthorizedClearsSessionOnce(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(2)
	release := make(chan struct{})
	go func() {
		arrived.Wait()
		close(release)
	}()

	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		arrived.Done()
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
	})
	require.NoError(t, f.store.SaveToken("expired", time.Time{}))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.client.Blogs.Mine(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, api.ErrUnauthorized)
	}
	assert.Equal(t, 1, f.store.clearCount())
	assert.Empty(t, f.manager.Token())
	require.Len(t, *f.events, 1)
	assert.Equal(t, EventSignedOut, (*f.events)[0].Kind)
	assert.Equal(t, "unauthorized", (*f.events)[0].Reason)
}

func TestUnauthorizedKeepsNewerToken(t *testing.T) {
	f := newFixture(t, func(http.ResponseWriter, *http.Request) {})
	require.NoError(t, f.store.SaveToken("fresh", time.Time{}))

	f.manager.handleUnauthorized("stale", &api.Error{Kind: api.KindUnauthorized, Path: "/users/blogs"})

	assert.Equal(t, "fresh", f.manager.Token())
	assert.Zero(t, f.store.clearCount())
	assert.Empty(t, *f.events)
}

func TestInitProbesStoredToken(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/me", r.URL.Path)
		writeJSON(w, http.StatusOK, domain.User{ID: "u1"})
	})
	require.NoError(t, f.store.SaveToken("stored", time.Time{}))

	require.NoError(t, f.manager.Init(context.Background()))
	require.NotNil(t, f.manager.User())
	assert.Equal(t, "u1", f.manager.User().ID)
}

func TestInitWithoutTokenMakesNoCall(t *testing.T) {
	f := newFixture(t, func(http.ResponseWriter, *http.Request) {
		t.Errorf("no request expected")
	})

	require.NoError(t, f.manager.Init(context.Background()))
	assert.False(t, f.manager.Authenticated())
}

func TestInitClearsRejectedToken(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "User not found"})
	})
	require.NoError(t, f.store.SaveToken("orphan", time.Time{}))

	require.NoError(t, f.manager.Init(context.Background()))
	assert.Empty(t, f.manager.Token())
	assert.Equal(t, 1, f.store.clearCount())
}

func TestInitKeepsTokenOnServerError(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	require.NoError(t, f.store.SaveToken("keep", time.Time{}))

	err := f.manager.Init(context.Background())
	assert.ErrorIs(t, err, api.ErrServer)
	assert.Equal(t, "keep", f.manager.Token())
	assert.Zero(t, f.store.clearCount())
}

func TestLogoutClearsAndNotifies(t *testing.T) {
	f := newFixture(t, func(http.ResponseWriter, *http.Request) {})
	require.NoError(t, f.store.SaveToken("tok", time.Time{}))

	require.NoError(t, f.manager.Logout())
	assert.Empty(t, f.manager.Token())
	assert.Nil(t, f.manager.Cookie())
	require.Len(t, *f.events, 1)
	assert.Equal(t, "logout", (*f.events)[0].Reason)
}

func TestRegisterWithoutTokenDoesNotSignIn(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, domain.AuthToken{User: &domain.User{ID: "new"}})
	})

	user, err := f.manager.Register(context.Background(), domain.Registration{Email: "a@b.c", Name: "A", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "new", user.ID)
	assert.False(t, f.manager.Authenticated())
}

type nilRegisterAPI struct{ AuthAPI }

func (nilRegisterAPI) Register(context.Context, domain.Registration) (*domain.AuthToken, error) {
	return nil, nil
}

func TestRegisterRejectsEmptyResponse(t *testing.T) {
	store, err := storage.NewStore("memory", "", storage.Options{TokenTTL: time.Hour})
	require.NoError(t, err)
	m, err := NewManager(store, nilRegisterAPI{}, nil)
	require.NoError(t, err)

	user, err := m.Register(context.Background(), domain.Registration{Email: "a@b.c", Name: "A", Password: "pw"})
	assert.Error(t, err)
	assert.Nil(t, user)
	assert.False(t, m.Authenticated())
}

func TestUpdateProfileMergesUser(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			writeJSON(w, http.StatusOK, domain.AuthToken{AccessToken: "tok", User: &domain.User{ID: "u1", Name: "Ada", Email: "a@b.c"}})
		case "/api/users/me":
			writeJSON(w, http.StatusOK, domain.User{Bio: "hello"})
		}
	})

	_, err := f.manager.UpdateProfile(context.Background(), domain.ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = f.manager.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	bio := "hello"
	user, err := f.manager.UpdateProfile(context.Background(), domain.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "hello", user.Bio)
	assert.Equal(t, EventProfileUpdated, (*f.events)[len(*f.events)-1].Kind)
}

func TestCookieMirrorsStoredToken(t *testing.T) {
	f := newFixture(t, func(http.ResponseWriter, *http.Request) {})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.manager.now = func() time.Time { return now }

	require.NoError(t, f.store.SaveToken("opaque", time.Time{}))
	cookie := f.manager.Cookie()
	require.NotNil(t, cookie)
	assert.Equal(t, CookieName, cookie.Name)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, "opaque", cookie.Value)
	assert.Equal(t, now.Add(CookieTTL), cookie.Expires)

	exp := now.Add(2 * time.Hour)
	jwtToken := signedToken(t, exp)
	require.NoError(t, f.store.SaveToken(jwtToken, time.Time{}))
	cookie = f.manager.Cookie()
	require.NotNil(t, cookie)
	assert.Equal(t, exp.Unix(), cookie.Expires.Unix())
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	f := newFixture(t, func(http.ResponseWriter, *http.Request) {})

	var got int
	unsubscribe := f.manager.Subscribe(func(Event) { got++ })
	require.NoError(t, f.manager.Logout())
	unsubscribe()
	unsubscribe()
	require.NoError(t, f.manager.Logout())

	assert.Equal(t, 1, got)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	assert.Equal(t, exp.Unix(), tokenExpiry(signedToken(t, exp)).Unix())
	assert.True(t, tokenExpiry("not-a-jwt").IsZero())
}

func TestNewManagerValidates(t *testing.T) {
	_, err := NewManager(nil, nil, nil)
	assert.Error(t, err)
}
