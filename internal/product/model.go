package product

import "time"

// Status of a product in the catalog.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusOutOfStock Status = "out_of_stock"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOutOfStock:
		return true
	}
	return false
}

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	// We store price as a string to avoid rounding errors (NUMERIC in Postgres)
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvailableFor reports whether qty units can be ordered right now.
func (p *Product) AvailableFor(qty int) bool {
	return p.Stock >= qty && p.Status == StatusActive
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	Items []Product `json:"items"`
	// page applied
	Page int `json:"page"`
	// limit applied
	Limit int `json:"limit"`
	// total items matching the filter
	Total int `json:"total"`
	// total pages
	Pages int `json:"pages"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name        string `json:"name"        example:"Mecanical Keyboard"`
	Description string `json:"description" example:"RGB 60%"`
	Category    string `json:"category"    example:"peripherals"`
	Price       string `json:"price"       example:"199.90"`
	Stock       int    `json:"stock"       example:"10"`
	Status      string `json:"status"      example:"active"`
}

// UpdateProductRequest payload of partial update.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Stock       *int   `json:"stock"`
	Status      string `json:"status"`
}

// AvailabilityResponse is what the order service consumes.
// swagger:model
type AvailabilityResponse struct {
	Available         bool   `json:"available"`
	ProductID         string `json:"product_id"`
	Stock             int    `json:"stock"`
	RequestedQuantity int    `json:"requested_quantity"`
}
