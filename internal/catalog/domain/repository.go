package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take the gorm handle from the caller so they can run
// inside a caller-owned transaction.
type Repository interface {
	InsertClient(ctx context.Context, db *gorm.DB, client *Client) error
	UpdateClient(ctx context.Context, db *gorm.DB, client *Client) error
	DeleteClient(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindClientByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
	ListClients(ctx context.Context, db *gorm.DB) ([]Client, error)
	CountOpenLedgerEntries(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (int64, error)

	InsertService(ctx context.Context, db *gorm.DB, service *Service) error
	UpdateService(ctx context.Context, db *gorm.DB, service *Service) error
	FindServiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Service, error)
	ListServices(ctx context.Context, db *gorm.DB) ([]Service, error)
}
