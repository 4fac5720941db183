package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// PageContext is the cross-page state handed to each page render.
// Renders return an updated copy; only the handler persists it.
type PageContext struct {
	City string
}

// WithCity returns pc with City replaced when city is non-blank.
func (pc PageContext) WithCity(city string) PageContext {
	if c := strings.TrimSpace(city); c != "" {
		pc.City = c
	}
	return pc
}

// Manager binds a Store to a session cookie.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

// NewManager returns a Manager issuing cookies named cookieName that live for ttl.
func NewManager(store Store, cookieName string, ttl time.Duration, secure bool) *Manager {
	if cookieName == "" {
		cookieName = "weather_session"
	}
	return &Manager{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		now:        time.Now,
	}
}

// Load returns the session ID for r, issuing a new cookie on w when absent or invalid,
// and the PageContext stored under it. Store errors are logged and yield an empty context.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (string, PageContext) {
	id := m.sessionID(r)
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(m.ttl / time.Second),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		return id, PageContext{}
	}

	state, ok, err := m.store.Get(r.Context(), id)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn("session load failed", zap.Error(err))
		return id, PageContext{}
	}
	if !ok {
		return id, PageContext{}
	}
	return id, PageContext{City: state.City}
}

// Save persists pc under id when it differs from prev.
func (m *Manager) Save(ctx context.Context, id string, prev, pc PageContext) {
	if pc == prev {
		return
	}
	state := State{City: pc.City, UpdatedAt: m.now().UTC()}
	if err := m.store.Set(ctx, id, state, m.ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn("session save failed", zap.Error(err))
	}
}

// Ping reports whether the backing store is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Manager) sessionID(r *http.Request) string {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}
