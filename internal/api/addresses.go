package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type addressWire struct {
	ID       *int64 `json:"id_key"`
	ClientID int64  `json:"client_id_key"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Type     string `json:"address_type"`
}

func addressFromWire(endpoint string, w addressWire) (domain.Address, error) {
	if w.ID == nil {
		return domain.Address{}, malformed(endpoint, "address without id_key")
	}
	return domain.Address{
		ID:       *w.ID,
		ClientID: w.ClientID,
		Street:   w.Street,
		City:     w.City,
		State:    w.State,
		ZipCode:  w.ZipCode,
		Type:     w.Type,
	}, nil
}

func (c *Client) ClientAddresses(ctx context.Context, clientID int64) ([]domain.Address, error) {
	var resp []addressWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/addresses/client/%d", clientID), nil, &resp); err != nil {
		return nil, err
	}
	addresses := make([]domain.Address, 0, len(resp))
	for _, w := range resp {
		a, err := addressFromWire("client addresses", w)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, nil
}

// StoreAddress returns the pickup address of the store.
func (c *Client) StoreAddress(ctx context.Context) (domain.Address, error) {
	var resp addressWire
	if err := c.do(ctx, http.MethodGet, "/addresses/store", nil, &resp); err != nil {
		return domain.Address{}, err
	}
	return addressFromWire("store address", resp)
}

type createAddressRequest struct {
	ClientID int64  `json:"client_id_key"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zip_code,omitempty"`
	Type     string `json:"address_type"`
}

func (c *Client) CreateAddress(ctx context.Context, a domain.Address) (domain.Address, error) {
	req := createAddressRequest{
		ClientID: a.ClientID,
		Street:   a.Street,
		City:     a.City,
		State:    a.State,
		ZipCode:  a.ZipCode,
		Type:     a.Type,
	}
	var resp addressWire
	if err := c.do(ctx, http.MethodPost, "/addresses", req, &resp); err != nil {
		return domain.Address{}, err
	}
	return addressFromWire("create address", resp)
}
