package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// profileWire accepts both id_key and id; older backend builds sent the
// latter on the client endpoints.
type profileWire struct {
	IDKey     *int64 `json:"id_key"`
	ID        *int64 `json:"id"`
	Name      string `json:"name"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

type clientPageWire struct {
	Items []profileWire `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	Pages int           `json:"pages"`
}

func profileFromWire(endpoint string, w profileWire) (domain.ClientProfile, error) {
	id := w.IDKey
	if id == nil {
		id = w.ID
	}
	if id == nil {
		return domain.ClientProfile{}, malformed(endpoint, "client without id_key")
	}
	return domain.ClientProfile{
		ID:        *id,
		Name:      w.Name,
		LastName:  w.LastName,
		Email:     w.Email,
		Telephone: w.Telephone,
	}, nil
}

// clientPageFromWire fills the paging fields the backend left out from the
// request.
func clientPageFromWire(endpoint string, w clientPageWire, page, limit int) (domain.ClientPage, error) {
	out := domain.ClientPage{
		Items: make([]domain.ClientProfile, 0, len(w.Items)),
		Total: w.Total,
		Page:  w.Page,
		Size:  w.Size,
		Pages: w.Pages,
	}
	for _, item := range w.Items {
		p, err := profileFromWire(endpoint, item)
		if err != nil {
			return domain.ClientPage{}, err
		}
		out.Items = append(out.Items, p)
	}
	if out.Page <= 0 {
		out.Page = page
	}
	if out.Size <= 0 {
		out.Size = limit
	}
	if out.Pages <= 0 {
		out.Pages = 1
	}
	if out.Total < len(out.Items) {
		out.Total = len(out.Items)
	}
	return out, nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("skip", strconv.Itoa((page-1)*limit))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// MyProfile returns the profile of the authenticated client.
func (c *Client) MyProfile(ctx context.Context) (domain.ClientProfile, error) {
	var resp profileWire
	if err := c.do(ctx, http.MethodGet, "/clients/me", nil, &resp); err != nil {
		return domain.ClientProfile{}, err
	}
	return profileFromWire("my profile", resp)
}

// ListClients returns one page of client accounts. Page is 1-based. Admin only.
func (c *Client) ListClients(ctx context.Context, page, limit int) (domain.ClientPage, error) {
	var resp clientPageWire
	if err := c.do(ctx, http.MethodGet, "/clients?"+pageQuery(page, limit).Encode(), nil, &resp); err != nil {
		return domain.ClientPage{}, err
	}
	return clientPageFromWire("list clients", resp, page, limit)
}

func (c *Client) SearchClients(ctx context.Context, query string, page, limit int) (domain.ClientPage, error) {
	q := pageQuery(page, limit)
	q.Set("q", query)

	var resp clientPageWire
	if err := c.do(ctx, http.MethodGet, "/clients/search?"+q.Encode(), nil, &resp); err != nil {
		return domain.ClientPage{}, err
	}
	return clientPageFromWire("search clients", resp, page, limit)
}

func (c *Client) GetClient(ctx context.Context, id int64) (domain.ClientProfile, error) {
	var resp profileWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/clients/%d", id), nil, &resp); err != nil {
		return domain.ClientProfile{}, err
	}
	return profileFromWire("get client", resp)
}

func (c *Client) UpdateClient(ctx context.Context, id int64, u domain.ProfileUpdate) (domain.ClientProfile, error) {
	var resp profileWire
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/clients/%d", id), u, &resp); err != nil {
		return domain.ClientProfile{}, err
	}
	return profileFromWire("update client", resp)
}

func (c *Client) DeleteClient(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/clients/%d", id), nil, nil)
}
