package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ProductInfo is the product snapshot the orchestrator needs.
type ProductInfo struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Stock  int
	Status string
}

// Availability is the product service's answer to "can I order qty units".
type Availability struct {
	Available bool
	Stock     int
}

// Gateway abstracts the product service. Injected into the orchestrator so
// tests can fake it and so no package-level client state exists.
type Gateway interface {
	GetProduct(ctx context.Context, productID string) (*ProductInfo, error)
	CheckAvailability(ctx context.Context, productID string, quantity int) (*Availability, error)
	// AdjustStock adds delta to the product's stock (negative = reserve,
	// positive = release), flooring at zero.
	AdjustStock(ctx context.Context, productID string, delta int) error
}

// HTTPGateway talks to the product service over its REST API.
type HTTPGateway struct {
	HTTP    *http.Client
	BaseURL string
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
	}
}

type productDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	Stock  int    `json:"stock"`
	Status string `json:"status"`
}

func (g *HTTPGateway) GetProduct(ctx context.Context, productID string) (*ProductInfo, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/products/%s", g.BaseURL, productID), nil)
	res, err := g.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get product: %s", res.Status)
	}
	var p productDTO
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return nil, fmt.Errorf("bad product price %q: %w", p.Price, err)
	}
	return &ProductInfo{ID: p.ID, Name: p.Name, Price: price, Stock: p.Stock, Status: p.Status}, nil
}

func (g *HTTPGateway) CheckAvailability(ctx context.Context, productID string, quantity int) (*Availability, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/products/%s/availability?quantity=%d", g.BaseURL, productID, quantity), nil)
	res, err := g.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check availability: %s", res.Status)
	}
	var body struct {
		Available bool `json:"available"`
		Stock     int  `json:"stock"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &Availability{Available: body.Available, Stock: body.Stock}, nil
}

// AdjustStock reads the current stock and writes it back adjusted by delta.
// Two requests, not atomic; concurrent adjusters can race. That matches the
// source system and is accepted (see DESIGN.md).
func (g *HTTPGateway) AdjustStock(ctx context.Context, productID string, delta int) error {
	p, err := g.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	newStock := p.Stock + delta
	if newStock < 0 {
		newStock = 0
	}
	body, _ := json.Marshal(map[string]int{"stock": newStock})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/api/products/%s", g.BaseURL, productID),
		bytes.NewReader(body),
	)
	req.Header.Set("Content-Type", "application/json")
	res, err := g.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrProductNotFound
	case http.StatusBadRequest:
		return fmt.Errorf("invalid stock")
	default:
		return fmt.Errorf("update stock: %s", res.Status)
	}
}
