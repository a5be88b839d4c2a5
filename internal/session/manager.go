// Package session holds the authenticated state of one browser: the session
// record returned by sign-in, the current head office and the feature gate
// derived from the record's resources.
//
// Every successful sign-in and head-office switch restarts the application
// shell so dependent components re-read state instead of subscribing to it.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/portal-compras-gateway/internal/authz"
	"github.com/iliyamo/portal-compras-gateway/internal/metrics"
	"github.com/iliyamo/portal-compras-gateway/internal/model"
	"github.com/iliyamo/portal-compras-gateway/internal/store"
)

// ErrEmptyToken is returned when the login collaborator answers without an
// access token; such a record cannot be marked as logged.
var ErrEmptyToken = errors.New("session: login returned no access token")

// Authenticator is the login collaborator.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (model.SessionRecord, error)
	FindSession(ctx context.Context, platformToken string) (model.SessionRecord, error)
}

// Shell is the application shell.  Restart makes every component reload
// from persisted state.
type Shell interface {
	Restart()
}

// ShellFunc adapts a function to Shell.
type ShellFunc func()

func (f ShellFunc) Restart() { f() }

// Manager is the auth state of one browser.  It is safe for concurrent use
// but does not serialize flows: two sign-ins racing on the same partition
// both write, last one wins.
type Manager struct {
	store *store.Store
	auth  Authenticator
	shell Shell
	log   logrus.FieldLogger

	mu         sync.RWMutex
	user       model.SessionRecord
	headOffice *model.HeadOffice
	gate       authz.Gate
	signInID   string // minted per sign-in; empty when anonymous
}

func NewManager(st *store.Store, auth Authenticator, shell Shell, log logrus.FieldLogger) *Manager {
	if shell == nil {
		shell = ShellFunc(func() {})
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	anon := model.AnonymousSession()
	return &Manager{
		store: st,
		auth:  auth,
		shell: shell,
		log:   log,
		user:  anon,
		gate:  authz.NewGate(anon.Resources),
	}
}

// Load reads the persisted session and current head office.  A missing or
// unreadable record leaves the manager anonymous.
func (m *Manager) Load(ctx context.Context) {
	user := model.AnonymousSession()
	if !m.store.GetItem(ctx, store.KeyUser, &user) {
		user = model.AnonymousSession()
	}
	var current *model.HeadOffice
	var ho model.HeadOffice
	if m.store.GetItem(ctx, store.KeyHeadOffice, &ho) {
		current = &ho
	}
	var signInID string
	m.store.GetItem(ctx, store.KeySignIn, &signInID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = normalize(user)
	m.headOffice = current
	m.gate = authz.NewGate(m.user.Resources)
	m.signInID = ""
	if m.user.Logged {
		m.signInID = signInID
	}
}

// SignIn authenticates with username and password.  Collaborator errors are
// returned untouched; errors.Is(err, backend.ErrLocked) identifies a locked
// account.
func (m *Manager) SignIn(ctx context.Context, username, password string) error {
	rec, err := m.auth.Login(ctx, strings.TrimSpace(username), password)
	if err == nil && rec.TypeAuth == model.TypeAuthNone {
		rec.TypeAuth = model.TypeAuthLocal
	}
	return m.establish(ctx, rec, err, string(model.TypeAuthLocal))
}

// SignInWithPlatformToken establishes a session from a token issued by the
// external platform.
func (m *Manager) SignInWithPlatformToken(ctx context.Context, platformToken string) error {
	rec, err := m.auth.FindSession(ctx, platformToken)
	if err == nil {
		rec.TypeAuth = model.TypeAuthPlatform
	}
	return m.establish(ctx, rec, err, string(model.TypeAuthPlatform))
}

func (m *Manager) establish(ctx context.Context, rec model.SessionRecord, err error, typeAuth string) error {
	if err == nil && rec.AccessToken == "" {
		err = ErrEmptyToken
	}
	metrics.SignIn(typeAuth, err)
	if err != nil {
		return err
	}

	rec.Logged = true
	rec = normalize(rec)
	signInID := uuid.NewString()
	m.store.SetItem(ctx, store.KeyUser, rec)
	m.store.SetItem(ctx, store.KeySignIn, signInID)

	var persisted model.HeadOffice
	hasCurrent := m.store.GetItem(ctx, store.KeyHeadOffice, &persisted)

	m.mu.Lock()
	m.user = rec
	m.gate = authz.NewGate(rec.Resources)
	m.signInID = signInID
	if hasCurrent {
		m.headOffice = &persisted
	} else if len(rec.HeadOffices) > 0 {
		first := rec.HeadOffices[0]
		m.headOffice = &first
		m.store.SetItem(ctx, store.KeyHeadOffice, first)
	}
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"username": rec.Username, "typeAuth": rec.TypeAuth}).Info("signed in")
	m.shell.Restart()
	return nil
}

// SignOut clears the whole storage partition and resets to anonymous.  It
// does not navigate; callers send the browser to the entry route.
func (m *Manager) SignOut(ctx context.Context) {
	m.store.Clear(ctx)

	anon := model.AnonymousSession()
	m.mu.Lock()
	m.user = anon
	m.gate = authz.NewGate(anon.Resources)
	m.headOffice = nil
	m.signInID = ""
	m.mu.Unlock()
}

// ChangeCurrentHeadOffice makes headOfficeID current.  The head office is
// looked up in the persisted record, not in memory.  Unknown ids, and
// records without head offices, leave everything unchanged; the return
// value reports whether the switch happened.
func (m *Manager) ChangeCurrentHeadOffice(ctx context.Context, headOfficeID int64) bool {
	var persisted model.SessionRecord
	if !m.store.GetItem(ctx, store.KeyUser, &persisted) || len(persisted.HeadOffices) == 0 {
		return false
	}
	ho, ok := persisted.FindHeadOffice(headOfficeID)
	if !ok {
		return false
	}

	m.mu.Lock()
	m.headOffice = &ho
	m.mu.Unlock()
	m.store.SetItem(ctx, store.KeyHeadOffice, ho)

	m.log.WithField("headOffice", ho.Code).Debug("current head office changed")
	m.shell.Restart()
	return true
}

// UpdateSession stores a record re-fetched after a settings change.  The
// logged flag and tokens of the current session are kept when the update
// carries none.
func (m *Manager) UpdateSession(ctx context.Context, rec model.SessionRecord) {
	m.mu.Lock()
	if rec.AccessToken == "" {
		rec.AccessToken = m.user.AccessToken
		rec.RefreshToken = m.user.RefreshToken
		rec.ExpiresIn = m.user.ExpiresIn
	}
	if rec.TypeAuth == model.TypeAuthNone {
		rec.TypeAuth = m.user.TypeAuth
	}
	rec.Logged = rec.AccessToken != ""
	rec = normalize(rec)
	m.user = rec
	m.gate = authz.NewGate(rec.Resources)
	m.mu.Unlock()

	m.store.SetItem(ctx, store.KeyUser, rec)
}

// User returns a copy of the current session record.
func (m *Manager) User() model.SessionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Logged reports whether the session is authenticated.
func (m *Manager) Logged() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Logged && m.user.AccessToken != ""
}

// Token returns the bearer token for upstream calls.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.AccessToken
}

// SignInID identifies the current sign-in.  Every sign-in gets a new one,
// even for the same user on the same partition; anonymous sessions have "".
func (m *Manager) SignInID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signInID
}

// CurrentHeadOffice returns the current head office, nil when none.
func (m *Manager) CurrentHeadOffice() *model.HeadOffice {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.headOffice == nil {
		return nil
	}
	ho := *m.headOffice
	return &ho
}

// Gate returns the feature visibility computed for the current resources.
func (m *Manager) Gate() authz.Gate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gate
}

// Store exposes the storage partition for per-screen state.
func (m *Manager) Store() *store.Store { return m.store }

func normalize(rec model.SessionRecord) model.SessionRecord {
	if rec.Resources == nil {
		rec.Resources = []string{}
	}
	if rec.HeadOffices == nil {
		rec.HeadOffices = []model.HeadOffice{}
	}
	if rec.AccessToken == "" {
		rec.Logged = false
	}
	return rec
}
