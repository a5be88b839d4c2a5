package handler

import (
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities

    "github.com/labstack/echo/v4"  // Echo framework for HTTP routing
    "github.com/pkg/errors"        // errors.Is against upstream sentinels
    "github.com/sirupsen/logrus"   // structured logging

    "github.com/iliyamo/portal-compras-gateway/internal/backend" // upstream error sentinels
    "github.com/iliyamo/portal-compras-gateway/internal/config"  // app configuration
    "github.com/iliyamo/portal-compras-gateway/internal/formerr" // form error maps
    "github.com/iliyamo/portal-compras-gateway/internal/metrics" // sign-out counter
    "github.com/iliyamo/portal-compras-gateway/internal/utils"   // platform token helpers
)

// AuthHandler bundles dependencies for sign-in and sign-out.
type AuthHandler struct {
	PublicPath  string
	RecoveryURL string
	Log         logrus.FieldLogger
}

func NewAuthHandler(cfg config.Config, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{PublicPath: cfg.PublicPath, RecoveryURL: cfg.RecoveryURL, Log: log}
}

// ----- DTOs -----

// signInReq accepts either credentials or a platform token.
type signInReq struct {
	Username      string `json:"username" validate:"required_without=PlatformToken"`
	Password      string `json:"password" validate:"required_without=PlatformToken"`
	PlatformToken string `json:"platformToken"`
}

// SignIn establishes the session of the calling browser.  Success answers
// the public session view and asks the browser to reload.  A locked account
// answers 423 with the recovery link so the page can show a banner.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.PlatformToken = strings.TrimSpace(req.PlatformToken)
	if fields, ok := formerr.Validate(req); !ok {
		return invalid(c, fields)
	}

	m := manager(c)
	ctx := c.Request().Context()
	var err error
	if req.PlatformToken != "" {
		h.Log.WithField("subject", utils.PlatformSubject(req.PlatformToken)).Debug("platform sign-in")
		err = m.SignInWithPlatformToken(ctx, req.PlatformToken)
	} else {
		err = m.SignIn(ctx, req.Username, req.Password)
	}

	switch {
	case err == nil:
		return c.JSON(http.StatusOK, sessionView(m))
	case errors.Is(err, backend.ErrLocked):
		return c.JSON(http.StatusLocked, echo.Map{
			"error":       "account_locked",
			"message":     backend.ServerMessage(err),
			"recoveryUrl": h.RecoveryURL,
		})
	case errors.Is(err, backend.ErrUnauthorized):
		msg := backend.ServerMessage(err)
		if msg == "" {
			msg = "Usuário ou senha inválidos."
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials", "message": msg})
	}
	h.Log.WithError(err).Warn("sign-in failed")
	msg := backend.ServerMessage(err)
	if msg == "" {
		msg = FallbackMessage
	}
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_error", "message": msg})
}

// SignOut clears the browser's partition and sends it to the entry route.
func (h *AuthHandler) SignOut(c echo.Context) error {
	manager(c).SignOut(c.Request().Context())
	metrics.SignOut("user")
	return c.JSON(http.StatusOK, echo.Map{"redirect": h.PublicPath})
}
