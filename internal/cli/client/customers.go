package client

import (
	"context"
	"fmt"
	"net/url"
)

// Customer represents a customer record managed from the console
type Customer struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Status    string  `json:"status,omitempty"`
	Gender    *string `json:"gender,omitempty"` // male, female, other or null
	CreatedAt string  `json:"created_at,omitempty"`
}

// CustomerList is the paged list payload
type CustomerList struct {
	Items []Customer `json:"items"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// CustomerInput is the create/replace payload
type CustomerInput struct {
	Name   string  `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Status string  `json:"status,omitempty"`
	Gender *string `json:"gender"`
}

// CustomerQuery filters the customer list; zero values are omitted
type CustomerQuery struct {
	Search *string
	Status *string
	Page   int
	Limit  int
}

func (q CustomerQuery) params() map[string]any {
	params := map[string]any{
		"q":      q.Search,
		"status": q.Status,
	}
	if q.Page > 0 {
		params["page"] = q.Page
	}
	if q.Limit > 0 {
		params["limit"] = q.Limit
	}
	return params
}

func customerPath(id string) string {
	return fmt.Sprintf("/customers/%s", url.PathEscape(id))
}

// ListCustomers returns a page of customers
func (c *Client) ListCustomers(ctx context.Context, q CustomerQuery) (*Response, error) {
	return c.Get(ctx, "/customers", &RequestOptions{Params: q.params()})
}

// GetCustomer returns one customer
func (c *Client) GetCustomer(ctx context.Context, id string) (*Response, error) {
	return c.Get(ctx, customerPath(id), nil)
}

// CreateCustomer creates a customer
func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (*Response, error) {
	return c.Post(ctx, "/customers", in, nil)
}

// UpdateCustomer replaces a customer
func (c *Client) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (*Response, error) {
	return c.Put(ctx, customerPath(id), in, nil)
}

// PatchCustomer updates only the given fields
func (c *Client) PatchCustomer(ctx context.Context, id string, fields map[string]any) (*Response, error) {
	return c.Patch(ctx, customerPath(id), fields, nil)
}

// DeleteCustomer deletes a customer
func (c *Client) DeleteCustomer(ctx context.Context, id string) (*Response, error) {
	return c.Delete(ctx, customerPath(id), nil)
}

// ImportCustomers uploads a .csv or .xlsx file of customers
func (c *Client) ImportCustomers(ctx context.Context, path string) (*Response, error) {
	form := NewMultipart()
	if err := form.AddFileFromPath("file", path); err != nil {
		return nil, err
	}
	return c.Upload(ctx, "/customers/import", form, nil)
}

// ExportCustomers downloads all customers as an xlsx workbook; the bytes are in Response.Raw
func (c *Client) ExportCustomers(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/customers/export", &RequestOptions{
		Headers: map[string]string{"Accept": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	})
}
