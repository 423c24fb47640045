package api

import (
	"context"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type clientWire struct {
	ID    *int64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	AccessToken string      `json:"access_token"`
	Client      *clientWire `json:"client"`
}

// Login exchanges credentials for a bearer token and the actor profile.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.Actor, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return domain.Actor{}, err
	}
	return actorFromAuth("login", resp)
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.Actor, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &resp); err != nil {
		return domain.Actor{}, err
	}
	return actorFromAuth("register", resp)
}

type verifyResponse struct {
	Valid  bool        `json:"valid"`
	Client *clientWire `json:"client"`
}

// VerifyToken asks the backend whether the current token is still accepted.
func (c *Client) VerifyToken(ctx context.Context) (bool, error) {
	var resp verifyResponse
	if err := c.do(ctx, http.MethodGet, "/auth/verify", nil, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

func actorFromAuth(endpoint string, resp authResponse) (domain.Actor, error) {
	if resp.AccessToken == "" {
		return domain.Actor{}, malformed(endpoint, "missing access_token")
	}
	if resp.Client == nil || resp.Client.ID == nil {
		return domain.Actor{}, malformed(endpoint, "missing client profile")
	}
	return domain.Actor{
		ID:        *resp.Client.ID,
		Name:      resp.Client.Name,
		Email:     resp.Client.Email,
		AuthToken: resp.AccessToken,
	}, nil
}
