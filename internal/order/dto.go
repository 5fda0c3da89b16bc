package order

// CreateOrderItem payload of one requested item.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	ProductID string `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity  int    `json:"quantity"   example:"2"`
}

// CreateOrderRequest payload of order creation.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items"`
	ShippingAddress *Address          `json:"shipping_address,omitempty"`
}

// UpdateStatusRequest payload of a status update.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" example:"confirmed"`
}

// Pagination block of list responses.
// swagger:model
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ListResponse is the paginated order listing.
// swagger:model
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}
