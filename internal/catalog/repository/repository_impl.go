package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/duebook/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) InsertClient(ctx context.Context, db *gorm.DB, client *catalogdomain.Client) error {
	return db.WithContext(ctx).Create(client).Error
}

func (r *repo) UpdateClient(ctx context.Context, db *gorm.DB, client *catalogdomain.Client) error {
	return db.WithContext(ctx).Save(client).Error
}

func (r *repo) DeleteClient(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&catalogdomain.Client{}, "id = ?", id).Error
}

func (r *repo) FindClientByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Client, error) {
	var client catalogdomain.Client
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, phone, notes, is_active, metadata, created_at, updated_at
		 FROM clients WHERE id = ?`,
		id,
	).Scan(&client).Error
	if err != nil {
		return nil, err
	}
	if client.ID == 0 {
		return nil, nil
	}
	return &client, nil
}

func (r *repo) ListClients(ctx context.Context, db *gorm.DB) ([]catalogdomain.Client, error) {
	var clients []catalogdomain.Client
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, phone, notes, is_active, metadata, created_at, updated_at
		 FROM clients ORDER BY name ASC`,
	).Scan(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

// CountOpenLedgerEntries counts unpaid payments still referencing the client,
// which blocks a destructive client delete.
func (r *repo) CountOpenLedgerEntries(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM payments WHERE client_id = ? AND is_paid = ?`,
		clientID,
		false,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) InsertService(ctx context.Context, db *gorm.DB, service *catalogdomain.Service) error {
	return db.WithContext(ctx).Create(service).Error
}

func (r *repo) UpdateService(ctx context.Context, db *gorm.DB, service *catalogdomain.Service) error {
	return db.WithContext(ctx).Save(service).Error
}

func (r *repo) FindServiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Service, error) {
	var service catalogdomain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, base_price, is_active, created_at, updated_at
		 FROM services WHERE id = ?`,
		id,
	).Scan(&service).Error
	if err != nil {
		return nil, err
	}
	if service.ID == 0 {
		return nil, nil
	}
	return &service, nil
}

func (r *repo) ListServices(ctx context.Context, db *gorm.DB) ([]catalogdomain.Service, error) {
	var services []catalogdomain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, base_price, is_active, created_at, updated_at
		 FROM services ORDER BY name ASC`,
	).Scan(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}
