package fakebackend

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type clientJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toClientJSON(a domain.Actor) clientJSON {
	return clientJSON{ID: a.ID, Name: a.Name, Email: a.Email}
}

type authJSON struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	Client      clientJSON `json:"client"`
}

type profileJSON struct {
	ID        int64  `json:"id_key"`
	Name      string `json:"name"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

func toProfileJSON(p domain.ClientProfile) profileJSON {
	return profileJSON{ID: p.ID, Name: p.Name, LastName: p.LastName, Email: p.Email, Telephone: p.Telephone}
}

type clientPageJSON struct {
	Items []profileJSON `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	Pages int           `json:"pages"`
}

type addressJSON struct {
	ID       int64  `json:"id_key"`
	ClientID int64  `json:"client_id_key"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Type     string `json:"address_type"`
}

func toAddressJSON(a domain.Address) addressJSON {
	return addressJSON{ID: a.ID, ClientID: a.ClientID, Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode, Type: a.Type}
}

type categoryJSON struct {
	ID          int64  `json:"id_key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type productJSON struct {
	ID         domain.ProductID `json:"id_key"`
	Name       string           `json:"name"`
	Price      json.Number      `json:"price"`
	Stock      int              `json:"stock"`
	CategoryID int64            `json:"category_id"`
}

func toProductJSON(p domain.Product) productJSON {
	return productJSON{ID: p.ID, Name: p.Name, Price: money(p.Price), Stock: p.Stock, CategoryID: p.CategoryID}
}

type orderDetailJSON struct {
	ProductID domain.ProductID `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
}

type orderJSON struct {
	ID             int64                 `json:"id_key"`
	ClientID       int64                 `json:"client_id_key"`
	Total          json.Number           `json:"total"`
	DeliveryMethod domain.DeliveryMethod `json:"delivery_method"`
	Status         domain.OrderStatus    `json:"status"`
	Address        string                `json:"address"`
	OrderDetails   []orderDetailOutJSON  `json:"order_details"`
}

type orderDetailOutJSON struct {
	ProductID domain.ProductID `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     json.Number      `json:"price"`
}

func toOrderDetails(lines []domain.OrderLine) []orderDetailOutJSON {
	out := make([]orderDetailOutJSON, 0, len(lines))
	for _, l := range lines {
		out = append(out, orderDetailOutJSON{ProductID: l.ProductID, Quantity: l.Quantity, Price: money(l.UnitPrice)})
	}
	return out
}

func toOrderJSON(o domain.Order) orderJSON {
	return orderJSON{
		ID:             o.ID,
		ClientID:       o.ClientID,
		Total:          money(o.Total),
		DeliveryMethod: o.DeliveryMethod,
		Status:         o.Status,
		Address:        o.Address,
		OrderDetails:   toOrderDetails(o.Lines),
	}
}

type createOrderJSON struct {
	ClientID       int64                 `json:"client_id_key"`
	Total          decimal.Decimal       `json:"total"`
	DeliveryMethod domain.DeliveryMethod `json:"delivery_method"`
	Status         domain.OrderStatus    `json:"status"`
	Address        string                `json:"address"`
	OrderDetails   []orderDetailJSON     `json:"order_details"`
}

type cancelJSON struct {
	Success       bool  `json:"success"`
	OrderID       int64 `json:"order_id"`
	StockRestored int   `json:"stock_restored"`
}

type stockBatchJSON struct {
	Items []domain.StockDelta `json:"items"`
}

type stockBatchResultJSON struct {
	Results []domain.StockAdjustment `json:"results"`
}

type reviewJSON struct {
	ID        int64            `json:"id_key"`
	ProductID domain.ProductID `json:"product_id"`
	OrderID   int64            `json:"order_id"`
	ClientID  int64            `json:"client_id"`
	Rating    int              `json:"rating"`
	Comment   string           `json:"comment"`
	CreatedAt time.Time        `json:"created_at"`
}

func toReviewJSON(r domain.Review) reviewJSON {
	return reviewJSON{
		ID:        r.ID,
		ProductID: r.ProductID,
		OrderID:   r.OrderID,
		ClientID:  r.ClientID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func toReviewsJSON(rs []domain.Review) []reviewJSON {
	out := make([]reviewJSON, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReviewJSON(r))
	}
	return out
}

type reviewInputJSON struct {
	ProductID domain.ProductID `json:"product_id"`
	OrderID   int64            `json:"order_id"`
	Rating    int              `json:"rating"`
	Comment   string           `json:"comment"`
}

type productReviewsJSON struct {
	Reviews []reviewJSON         `json:"reviews"`
	Summary domain.RatingSummary `json:"summary"`
}
