package backend

import (
	"context"
	"net/http"

	"github.com/iliyamo/portal-compras-gateway/internal/model"
)

const (
	loginPath       = "/auth/login"
	findSessionPath = "/auth/session"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session record.  A locked account
// answers 423, which matches ErrLocked.
func (c *Client) Login(ctx context.Context, username, password string) (model.SessionRecord, error) {
	var rec model.SessionRecord
	err := c.Do(ctx, http.MethodPost, loginPath, "", nil, loginReq{Username: username, Password: password}, &rec)
	return rec, err
}

// FindSession resolves a token issued by the external platform into the
// portal session of its owner.
func (c *Client) FindSession(ctx context.Context, platformToken string) (model.SessionRecord, error) {
	var rec model.SessionRecord
	err := c.Do(ctx, http.MethodGet, findSessionPath, platformToken, nil, nil, &rec)
	return rec, err
}
