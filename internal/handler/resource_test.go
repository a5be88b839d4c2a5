package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/portal-compras-gateway/internal/authz"
	"github.com/iliyamo/portal-compras-gateway/internal/backend"
	"github.com/iliyamo/portal-compras-gateway/internal/logging"
	"github.com/iliyamo/portal-compras-gateway/internal/middleware"
)

type upstreamCall struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   string
}

// fakeAPI records calls and answers with status and body.
type fakeAPI struct {
	mu     sync.Mutex
	calls  []upstreamCall
	status int
	body   string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, upstreamCall{r.Method, r.URL.Path, r.URL.Query(), r.Header.Get("Authorization"), string(raw)})
	status, body := f.status, f.body
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeAPI) last() upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newResourcePortal(t *testing.T, api *fakeAPI) *portal {
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	rh := NewResourceHandler(backend.New(srv.URL, time.Second, backend.WithLogger(logging.Discard())), publicPath)

	p := newPortal(t, &fakeAuth{rec: sessionRecord(authz.PermSuppliers, authz.PermPurchaseRequest)}, func(g *echo.Group) {
		r := g.Group("/resources", middleware.RequireLogged(publicPath), middleware.RequireResourceFeature())
		r.GET("/:resource", rh.List)
		r.POST("/:resource", rh.Create)
		r.GET("/:resource/:id", rh.Get)
		r.PUT("/:resource/:id", rh.Update)
		r.DELETE("/:resource/:id", rh.Delete)
	})
	p.signIn()
	return p
}

func TestList_ForwardsOneBasedPageAndResetsOnEmpty(t *testing.T) {
	api := &fakeAPI{status: http.StatusOK, body: `{"data":[],"totalRows":0}`}
	p := newResourcePortal(t, api)

	rec := p.do(http.MethodGet, "/v1/resources/suppliers?perPage=20&currentPage=2&orderBy=name&filterField=name&filterValue=acme", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	call := api.last()
	require.Equal(t, "/suppliers", call.Path)
	require.Equal(t, "Bearer api-token", call.Auth)
	require.Equal(t, "3", call.Query.Get("currentPage"))
	require.Equal(t, "20", call.Query.Get("perPage"))
	require.Equal(t, "containing", call.Query.Get("precision"))

	var body struct {
		Data      []json.RawMessage `json:"data"`
		TotalRows int               `json:"totalRows"`
		Query     struct {
			PerPage     int `json:"perPage"`
			CurrentPage int `json:"currentPage"`
		} `json:"query"`
	}
	decode(t, rec, &body)
	require.Empty(t, body.Data)
	require.NotNil(t, body.Data)
	require.Equal(t, 10, body.Query.PerPage)
	require.Equal(t, 0, body.Query.CurrentPage)
}

func TestList_ScreenWithoutResetKeepsPosition(t *testing.T) {
	api := &fakeAPI{status: http.StatusOK, body: `{"data":[],"totalRows":0}`}
	p := newResourcePortal(t, api)

	rec := p.do(http.MethodGet, "/v1/resources/purchase-orders?perPage=20&currentPage=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"perPage":20,"currentPage":2`)
}

func TestResources_InvisibleFeatureIsNotFound(t *testing.T) {
	api := &fakeAPI{status: http.StatusOK, body: `{}`}
	p := newResourcePortal(t, api)

	require.Equal(t, http.StatusNotFound, p.do(http.MethodGet, "/v1/resources/users", "").Code)
	require.Zero(t, api.count())
}

func TestCreate_ValidatesForms(t *testing.T) {
	api := &fakeAPI{status: http.StatusCreated, body: `{"id":5}`}
	p := newResourcePortal(t, api)

	rec := p.do(http.MethodPost, "/v1/resources/suppliers", `{"name":"ACME","document":"123","address":{"zipCode":"0100"}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, rec, &body)
	require.Equal(t, "Deve ter no mínimo 11 caracteres", body.Errors["document"])
	require.Equal(t, "Deve ter 8 caracteres", body.Errors["address.zipCode"])
	require.Equal(t, "Campo obrigatório", body.Errors["address.city"])
	require.Zero(t, api.count())

	rec = p.do(http.MethodPost, "/v1/resources/suppliers", `{"name":"ACME","document":"12345678000199","address":{"zipCode":"01001000","street":"Praça da Sé","number":"1","neighborhood":"Sé","city":"São Paulo","state":"SP"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"id":5}`, rec.Body.String())
	call := api.last()
	require.Equal(t, http.MethodPost, call.Method)
	require.Equal(t, "/suppliers/", call.Path)
	require.Contains(t, call.Body, `"zipCode":"01001000"`)
}

func TestCreate_UnvalidatedResourceIsForwardedAsSent(t *testing.T) {
	api := &fakeAPI{status: http.StatusCreated, body: `{"id":1}`}
	p := newResourcePortal(t, api)

	rec := p.do(http.MethodPost, "/v1/resources/quotations", `{"anything":[1,2]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"anything":[1,2]}`, api.last().Body)

	require.Equal(t, http.StatusBadRequest, p.do(http.MethodPost, "/v1/resources/quotations", `{`).Code)
}

func TestUpdateAndDelete(t *testing.T) {
	api := &fakeAPI{status: http.StatusOK, body: `{"id":"7"}`}
	p := newResourcePortal(t, api)

	rec := p.do(http.MethodPut, "/v1/resources/purchase-orders/7", `{"status":"sent"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/purchase-orders/7", api.last().Path)

	api.mu.Lock()
	api.status, api.body = http.StatusNoContent, ""
	api.mu.Unlock()
	rec = p.do(http.MethodDelete, "/v1/resources/purchase-orders/7", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, http.MethodDelete, api.last().Method)
}

func TestUpstream401SignsOut(t *testing.T) {
	api := &fakeAPI{status: http.StatusUnauthorized, body: `{"message":"expired"}`}
	p := newResourcePortal(t, api)

	rec := p.do(http.MethodGet, "/v1/resources/suppliers/1", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"unauthorized","redirect":"/entrar"}`, rec.Body.String())

	var body sessionBody
	decode(t, p.do(http.MethodGet, "/v1/session", ""), &body)
	require.False(t, body.User.Logged)

	// the next call is rejected before reaching the API
	calls := api.count()
	require.Equal(t, http.StatusUnauthorized, p.do(http.MethodGet, "/v1/resources/suppliers", "").Code)
	require.Equal(t, calls, api.count())
}

func TestUpstreamErrorMessages(t *testing.T) {
	api := &fakeAPI{status: http.StatusBadRequest, body: `{"message":"Fornecedor em uso"}`}
	p := newResourcePortal(t, api)

	rec := p.do(http.MethodDelete, "/v1/resources/suppliers/1", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.JSONEq(t, `{"error":"upstream_error","message":"Fornecedor em uso"}`, rec.Body.String())

	api.mu.Lock()
	api.status, api.body = http.StatusInternalServerError, `<html>`
	api.mu.Unlock()
	rec = p.do(http.MethodGet, "/v1/resources/suppliers/1", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.JSONEq(t, `{"error":"upstream_error","message":"Erro inesperado, contate o suporte."}`, rec.Body.String())
}
