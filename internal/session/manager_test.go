package session

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/portal-compras-gateway/internal/authz"
	"github.com/iliyamo/portal-compras-gateway/internal/backend"
	"github.com/iliyamo/portal-compras-gateway/internal/logging"
	"github.com/iliyamo/portal-compras-gateway/internal/model"
	"github.com/iliyamo/portal-compras-gateway/internal/store"
)

type fakeAuth struct {
	rec model.SessionRecord
	err error

	platformTokens []string
}

func (f *fakeAuth) Login(context.Context, string, string) (model.SessionRecord, error) {
	return f.rec, f.err
}

func (f *fakeAuth) FindSession(_ context.Context, tok string) (model.SessionRecord, error) {
	f.platformTokens = append(f.platformTokens, tok)
	return f.rec, f.err
}

type countingShell struct{ restarts int }

func (s *countingShell) Restart() { s.restarts++ }

var (
	matriz = model.HeadOffice{ID: 1, Code: "01", Name: "Matriz"}
	filial = model.HeadOffice{ID: 2, Code: "02", Name: "Filial Sul"}
)

func signedInRecord() model.SessionRecord {
	return model.SessionRecord{
		AccessToken: "tok",
		Username:    "ana",
		Resources:   []string{"solicitacao-compra-portal-compras"},
		HeadOffices: []model.HeadOffice{matriz, filial},
	}
}

func newTestManager(t *testing.T, auth Authenticator) (*Manager, *store.Store, *countingShell) {
	t.Helper()
	st := store.New(store.NewMemoryBackend(), "p1", logging.Discard())
	shell := &countingShell{}
	return NewManager(st, auth, shell, logging.Discard()), st, shell
}

func TestSignIn_MarksLoggedAndPersists(t *testing.T) {
	ctx := context.Background()
	m, st, shell := newTestManager(t, &fakeAuth{rec: signedInRecord()})

	require.NoError(t, m.SignIn(ctx, " ana ", "pw"))

	u := m.User()
	require.True(t, u.Logged)
	require.NotEmpty(t, u.AccessToken)
	require.Equal(t, model.TypeAuthLocal, u.TypeAuth)
	require.True(t, m.Logged())
	require.Equal(t, 1, shell.restarts)

	var persisted model.SessionRecord
	require.True(t, st.GetItem(ctx, store.KeyUser, &persisted))
	require.True(t, persisted.Logged)
	require.True(t, m.Gate().Visible(authz.FeatureStockRequest))
}

func TestSignIn_FirstHeadOfficeBecomesCurrent(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t, &fakeAuth{rec: signedInRecord()})

	require.NoError(t, m.SignIn(ctx, "ana", "pw"))

	require.Equal(t, &matriz, m.CurrentHeadOffice())
	var persisted model.HeadOffice
	require.True(t, st.GetItem(ctx, store.KeyHeadOffice, &persisted))
	require.Equal(t, matriz.ID, persisted.ID)
}

func TestSignIn_KeepsPersistedHeadOffice(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t, &fakeAuth{rec: signedInRecord()})
	st.SetItem(ctx, store.KeyHeadOffice, filial)

	require.NoError(t, m.SignIn(ctx, "ana", "pw"))

	require.Equal(t, filial.ID, m.CurrentHeadOffice().ID)
}

func TestSignIn_NoHeadOfficesLeavesCurrentEmpty(t *testing.T) {
	ctx := context.Background()
	rec := signedInRecord()
	rec.HeadOffices = nil
	m, st, _ := newTestManager(t, &fakeAuth{rec: rec})

	require.NoError(t, m.SignIn(ctx, "ana", "pw"))

	require.Nil(t, m.CurrentHeadOffice())
	require.NotContains(t, st.Keys(ctx), store.KeyHeadOffice)
}

func TestSignIn_PropagatesCollaboratorError(t *testing.T) {
	ctx := context.Background()
	locked := &backend.APIError{Status: 423, Message: "bloqueado"}
	m, st, shell := newTestManager(t, &fakeAuth{err: locked})

	err := m.SignIn(ctx, "ana", "pw")

	require.Same(t, locked, err)
	require.True(t, errors.Is(err, backend.ErrLocked))
	require.False(t, m.Logged())
	require.Empty(t, st.Keys(ctx))
	require.Zero(t, shell.restarts)
}

func TestSignIn_EmptyTokenIsRejected(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeAuth{rec: model.SessionRecord{Username: "ana"}})

	err := m.SignIn(context.Background(), "ana", "pw")
	require.ErrorIs(t, err, ErrEmptyToken)
	require.False(t, m.Logged())
}

func TestSignInWithPlatformToken(t *testing.T) {
	auth := &fakeAuth{rec: signedInRecord()}
	m, _, _ := newTestManager(t, auth)

	require.NoError(t, m.SignInWithPlatformToken(context.Background(), "plat"))

	require.Equal(t, []string{"plat"}, auth.platformTokens)
	require.Equal(t, model.TypeAuthPlatform, m.User().TypeAuth)
	require.True(t, m.User().Logged)
}

func TestSignOut_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t, &fakeAuth{rec: signedInRecord()})
	require.NoError(t, m.SignIn(ctx, "ana", "pw"))
	st.SetItem(ctx, store.KeyApprovalsFilters, map[string]any{"tab": "Compras"})
	st.SetItem(ctx, "unrelated", 1)

	m.SignOut(ctx)

	require.Empty(t, st.Keys(ctx))
	require.Equal(t, model.AnonymousSession(), m.User())
	require.False(t, m.User().Logged)
	require.Empty(t, m.User().Resources)
	require.Nil(t, m.CurrentHeadOffice())
	require.Empty(t, m.Gate().Features())
}

func TestChangeCurrentHeadOffice(t *testing.T) {
	ctx := context.Background()
	m, st, shell := newTestManager(t, &fakeAuth{rec: signedInRecord()})
	require.NoError(t, m.SignIn(ctx, "ana", "pw"))

	require.True(t, m.ChangeCurrentHeadOffice(ctx, filial.ID))

	require.Equal(t, filial.ID, m.CurrentHeadOffice().ID)
	var persisted model.HeadOffice
	require.True(t, st.GetItem(ctx, store.KeyHeadOffice, &persisted))
	require.Equal(t, filial.ID, persisted.ID)
	require.Equal(t, 2, shell.restarts)
}

func TestChangeCurrentHeadOffice_UnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	m, _, shell := newTestManager(t, &fakeAuth{rec: signedInRecord()})
	require.NoError(t, m.SignIn(ctx, "ana", "pw"))

	require.False(t, m.ChangeCurrentHeadOffice(ctx, 99))

	require.Equal(t, matriz.ID, m.CurrentHeadOffice().ID)
	require.Equal(t, 1, shell.restarts)
}

func TestChangeCurrentHeadOffice_ReadsPersistedRecord(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t, &fakeAuth{rec: signedInRecord()})
	require.NoError(t, m.SignIn(ctx, "ana", "pw"))

	// another flow stored a record where the filial is gone
	stale := signedInRecord()
	stale.HeadOffices = []model.HeadOffice{matriz}
	st.SetItem(ctx, store.KeyUser, stale)

	require.False(t, m.ChangeCurrentHeadOffice(ctx, filial.ID))
	require.Equal(t, matriz.ID, m.CurrentHeadOffice().ID)
}

func TestChangeCurrentHeadOffice_SignedOutIsNoop(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, &fakeAuth{rec: signedInRecord()})
	require.NoError(t, m.SignIn(ctx, "ana", "pw"))
	m.SignOut(ctx)

	require.False(t, m.ChangeCurrentHeadOffice(ctx, matriz.ID))
	require.Nil(t, m.CurrentHeadOffice())
}

func TestLoad_RestoresPersistedState(t *testing.T) {
	ctx := context.Background()
	first, st, _ := newTestManager(t, &fakeAuth{rec: signedInRecord()})
	require.NoError(t, first.SignIn(ctx, "ana", "pw"))

	second := NewManager(st, &fakeAuth{}, nil, logging.Discard())
	second.Load(ctx)

	require.True(t, second.Logged())
	require.Equal(t, "tok", second.Token())
	require.Equal(t, matriz.ID, second.CurrentHeadOffice().ID)
	require.True(t, second.Gate().Visible(authz.FeaturePurchaseRequest))
}

func TestLoad_CorruptRecordIsAnonymous(t *testing.T) {
	ctx := context.Background()
	backendStore := store.NewMemoryBackend()
	require.NoError(t, backendStore.Set(ctx, "p1", store.KeyUser, []byte("{")))
	m := NewManager(store.New(backendStore, "p1", logging.Discard()), &fakeAuth{}, nil, logging.Discard())

	m.Load(ctx)

	require.False(t, m.Logged())
	require.Equal(t, model.AnonymousSession(), m.User())
}

func TestUpdateSession_KeepsTokens(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t, &fakeAuth{rec: signedInRecord()})
	require.NoError(t, m.SignIn(ctx, "ana", "pw"))

	m.UpdateSession(ctx, model.SessionRecord{Username: "ana", Name: "Ana Souza", Resources: []string{"relatorios-portal-compras"}})

	u := m.User()
	require.Equal(t, "tok", u.AccessToken)
	require.True(t, u.Logged)
	require.Equal(t, "Ana Souza", u.Name)
	require.True(t, m.Gate().Visible(authz.FeatureReports))
	require.False(t, m.Gate().Visible(authz.FeatureStockRequest))

	var persisted model.SessionRecord
	require.True(t, st.GetItem(ctx, store.KeyUser, &persisted))
	require.Equal(t, "Ana Souza", persisted.Name)
}

func TestFromContext_PanicsOutsideMiddleware(t *testing.T) {
	require.Panics(t, func() { FromContext(context.Background()) })

	m, _, _ := newTestManager(t, &fakeAuth{})
	require.Same(t, m, FromContext(WithManager(context.Background(), m)))
}

func TestSignInID_NewPerSignInAndGoneAfterSignOut(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestManager(t, &fakeAuth{rec: signedInRecord()})
	require.Empty(t, m.SignInID())

	require.NoError(t, m.SignIn(ctx, "ana", "pw"))
	first := m.SignInID()
	require.NotEmpty(t, first)

	reloaded := NewManager(st, &fakeAuth{}, nil, logging.Discard())
	reloaded.Load(ctx)
	require.Equal(t, first, reloaded.SignInID())

	m.SignOut(ctx)
	require.Empty(t, m.SignInID())

	require.NoError(t, m.SignIn(ctx, "ana", "pw"))
	require.NotEqual(t, first, m.SignInID())
}
