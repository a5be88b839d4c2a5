package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portal-compras-gateway/internal/authz"
    "github.com/iliyamo/portal-compras-gateway/internal/model"
    "github.com/iliyamo/portal-compras-gateway/internal/session"
)

// SessionHandler serves the session of the calling browser.
type SessionHandler struct {
	Auth       session.Authenticator // used to re-fetch the session after settings changes
	PublicPath string
}

func NewSessionHandler(auth session.Authenticator, publicPath string) *SessionHandler {
	return &SessionHandler{Auth: auth, PublicPath: publicPath}
}

// sessionResp is what the browser sees of a session.  Tokens never leave
// the gateway.
type sessionResp struct {
	User              model.SessionRecord    `json:"user"`
	CurrentHeadOffice *model.HeadOffice      `json:"currentHeadOffice"`
	Features          map[authz.Feature]bool `json:"features"`
}

func sessionView(m *session.Manager) sessionResp {
	u := m.User()
	u.AccessToken = ""
	u.RefreshToken = ""
	return sessionResp{User: u, CurrentHeadOffice: m.CurrentHeadOffice(), Features: m.Gate().Menu()}
}

// Get answers the current session, anonymous or not.
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionView(manager(c)))
}

// Features answers the menu: every feature with its visibility.
func (h *SessionHandler) Features(c echo.Context) error {
	return c.JSON(http.StatusOK, manager(c).Gate().Menu())
}

type headOfficeReq struct {
	HeadOfficeID int64 `json:"headOfficeId"`
}

// ChangeHeadOffice switches the current head office.  Unknown ids leave the
// session unchanged and answer 404.
func (h *SessionHandler) ChangeHeadOffice(c echo.Context) error {
	var req headOfficeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	m := manager(c)
	if !m.ChangeCurrentHeadOffice(c.Request().Context(), req.HeadOfficeID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "head office not found"})
	}
	return c.JSON(http.StatusOK, sessionView(m))
}

// Refresh re-fetches the session from the API, e.g. after the user changed
// their default cost center, and stores it.
func (h *SessionHandler) Refresh(c echo.Context) error {
	m := manager(c)
	ctx := c.Request().Context()
	rec, err := h.Auth.FindSession(ctx, m.Token())
	if err != nil {
		return upstreamFailure(c, h.PublicPath, err)
	}
	m.UpdateSession(ctx, rec)
	return c.JSON(http.StatusOK, sessionView(m))
}
