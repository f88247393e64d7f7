package domain

import (
	"context"
	"errors"

	"gorm.io/datatypes"
)

type CreateClientRequest struct {
	Name     string            `json:"name"`
	Email    *string           `json:"email,omitempty"`
	Phone    *string           `json:"phone,omitempty"`
	Notes    *string           `json:"notes,omitempty"`
	Metadata datatypes.JSONMap `json:"metadata,omitempty"`
	Actor    string            `json:"-"`
}

type UpdateClientRequest struct {
	ID       string            `json:"-"`
	Name     *string           `json:"name,omitempty"`
	Email    *string           `json:"email,omitempty"`
	Phone    *string           `json:"phone,omitempty"`
	Notes    *string           `json:"notes,omitempty"`
	IsActive *bool             `json:"is_active,omitempty"`
	Metadata datatypes.JSONMap `json:"metadata,omitempty"`
	Actor    string            `json:"-"`
}

type CreateServiceRequest struct {
	Name      string `json:"name"`
	BasePrice int64  `json:"base_price"`
	Actor     string `json:"-"`
}

type UpdateServiceRequest struct {
	ID        string  `json:"-"`
	Name      *string `json:"name,omitempty"`
	BasePrice *int64  `json:"base_price,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
	Actor     string  `json:"-"`
}

type CatalogService interface {
	CreateClient(context.Context, CreateClientRequest) (Client, error)
	UpdateClient(context.Context, UpdateClientRequest) (Client, error)
	DeleteClient(ctx context.Context, id string, actor string) error
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)

	CreateService(context.Context, CreateServiceRequest) (Service, error)
	UpdateService(context.Context, UpdateServiceRequest) (Service, error)
	GetService(ctx context.Context, id string) (Service, error)
	ListServices(ctx context.Context) ([]Service, error)
}

var (
	ErrClientNotFound       = errors.New("client_not_found")
	ErrServiceNotFound      = errors.New("service_not_found")
	ErrClientHasOpenLedger  = errors.New("client_has_unpaid_payments")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidBasePrice     = errors.New("invalid_base_price")
	ErrInvalidID            = errors.New("invalid_id")
	ErrDuplicateServiceCode = errors.New("duplicate_service_code")
)
