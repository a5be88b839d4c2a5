package handler

import (
    "encoding/json"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portal-compras-gateway/internal/backend"
    "github.com/iliyamo/portal-compras-gateway/internal/formerr"
    "github.com/iliyamo/portal-compras-gateway/internal/listquery"
)

// ResourceHandler proxies the CRUD screens of the portal to the API.  The
// route's :resource is checked against the session's features before any
// handler runs (middleware.RequireResourceFeature).
type ResourceHandler struct {
	API        *backend.Client
	PublicPath string
}

func NewResourceHandler(api *backend.Client, publicPath string) *ResourceHandler {
	if api == nil {
		panic("nil api client passed to NewResourceHandler")
	}
	return &ResourceHandler{API: api, PublicPath: publicPath}
}

// listResp carries the page and the query the screen should show next,
// which differs from the request when an empty result reset the paging.
type listResp struct {
	Data      []json.RawMessage `json:"data"`
	TotalRows int               `json:"totalRows"`
	Query     listquery.Query   `json:"query"`
}

func resourceName(c echo.Context) string { return strings.ToLower(c.Param("resource")) }

// List answers one page.  The query string uses the gateway's 0-based
// currentPage; see listquery.Parse for accepted parameters.
func (h *ResourceHandler) List(c echo.Context) error {
	name := resourceName(c)
	cfg := listquery.ScreenFor(name)
	q := listquery.Parse(c.QueryParams(), cfg)

	m := manager(c)
	page, err := h.API.Resource(name).List(c.Request().Context(), m.Token(), q)
	if err != nil {
		return upstreamFailure(c, h.PublicPath, err)
	}
	data := page.Data
	if data == nil {
		data = []json.RawMessage{}
	}
	return c.JSON(http.StatusOK, listResp{
		Data:      data,
		TotalRows: page.TotalRows,
		Query:     listquery.AfterResponse(q, page.TotalRows, cfg),
	})
}

func (h *ResourceHandler) Get(c echo.Context) error {
	rec, err := h.API.Resource(resourceName(c)).Get(c.Request().Context(), manager(c).Token(), c.Param("id"))
	if err != nil {
		return upstreamFailure(c, h.PublicPath, err)
	}
	return c.JSONBlob(http.StatusOK, rec)
}

func (h *ResourceHandler) Create(c echo.Context) error {
	body, ok, err := h.body(c)
	if !ok {
		return err
	}
	rec, err := h.API.Resource(resourceName(c)).Create(c.Request().Context(), manager(c).Token(), body)
	if err != nil {
		return upstreamFailure(c, h.PublicPath, err)
	}
	return blobOrEmpty(c, http.StatusCreated, rec)
}

func (h *ResourceHandler) Update(c echo.Context) error {
	body, ok, err := h.body(c)
	if !ok {
		return err
	}
	rec, err := h.API.Resource(resourceName(c)).Update(c.Request().Context(), manager(c).Token(), c.Param("id"), body)
	if err != nil {
		return upstreamFailure(c, h.PublicPath, err)
	}
	return blobOrEmpty(c, http.StatusOK, rec)
}

func (h *ResourceHandler) Delete(c echo.Context) error {
	if err := h.API.Resource(resourceName(c)).Delete(c.Request().Context(), manager(c).Token(), c.Param("id")); err != nil {
		return upstreamFailure(c, h.PublicPath, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// body reads the request body.  Resources with a form are decoded into it
// and validated; a failure has already been answered when ok is false.
func (h *ResourceHandler) body(c echo.Context) (body any, ok bool, err error) {
	newForm, validated := forms[resourceName(c)]
	if !validated {
		var raw json.RawMessage
		if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
			return nil, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		return raw, true, nil
	}
	form := newForm()
	if err := json.NewDecoder(c.Request().Body).Decode(form); err != nil {
		return nil, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields, valid := formerr.Validate(form); !valid {
		return nil, false, invalid(c, fields)
	}
	return form, true, nil
}

func blobOrEmpty(c echo.Context, status int, rec json.RawMessage) error {
	if len(rec) == 0 {
		return c.NoContent(status)
	}
	return c.JSONBlob(status, rec)
}
