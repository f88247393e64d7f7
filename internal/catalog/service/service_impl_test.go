package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/duebook/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/duebook/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/duebook/internal/catalog/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE clients (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			notes TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE services (
			id BIGINT PRIMARY KEY,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			base_price BIGINT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_services_code ON services(code)`,
		`CREATE TABLE payments (
			id BIGINT PRIMARY KEY,
			client_id BIGINT NOT NULL,
			service_id BIGINT,
			subscription_id BIGINT,
			payment_type TEXT NOT NULL,
			due_date DATETIME NOT NULL,
			amount BIGINT NOT NULL,
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			paid_date DATETIME,
			payment_method TEXT,
			reference TEXT,
			is_overdue BOOLEAN NOT NULL DEFAULT FALSE,
			notes TEXT,
			created_by TEXT NOT NULL,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newCatalogService(t *testing.T, db *gorm.DB) (catalogdomain.CatalogService, *snowflake.Node) {
	t.Helper()
	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	svc := catalogservice.NewService(catalogservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  catalogrepo.Provide(),
	})
	return svc, node
}

func TestClientLifecycle(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, _ := newCatalogService(t, db)

	email := "billing@acme.test"
	client, err := svc.CreateClient(ctx, catalogdomain.CreateClientRequest{
		Name:  "  Acme Corp  ",
		Email: &email,
		Actor: "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", client.Name)
	assert.True(t, client.IsActive)

	inactive := false
	updated, err := svc.UpdateClient(ctx, catalogdomain.UpdateClientRequest{
		ID:       client.ID.String(),
		IsActive: &inactive,
		Actor:    "tester",
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	fetched, err := svc.GetClient(ctx, client.ID.String())
	require.NoError(t, err)
	require.NotNil(t, fetched.Email)
	assert.Equal(t, email, *fetched.Email)

	require.NoError(t, svc.DeleteClient(ctx, client.ID.String(), "tester"))
	_, err = svc.GetClient(ctx, client.ID.String())
	assert.ErrorIs(t, err, catalogdomain.ErrClientNotFound)
}

func TestDeleteClientRefusedWithOpenLedger(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, node := newCatalogService(t, db)

	client, err := svc.CreateClient(ctx, catalogdomain.CreateClientRequest{
		Name:  "Acme Corp",
		Actor: "tester",
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, db.Exec(
		`INSERT INTO payments (id, client_id, payment_type, due_date, amount, is_paid, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		node.Generate(), client.ID, "ONE_OFF", now, 1000, false, "tester", now, now,
	).Error)

	err = svc.DeleteClient(ctx, client.ID.String(), "tester")
	assert.ErrorIs(t, err, catalogdomain.ErrClientHasOpenLedger)

	// Settling the entry unblocks the delete.
	require.NoError(t, db.Exec(`UPDATE payments SET is_paid = TRUE WHERE client_id = ?`, client.ID).Error)
	assert.NoError(t, svc.DeleteClient(ctx, client.ID.String(), "tester"))
}

func TestCreateServiceDerivesCode(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, _ := newCatalogService(t, db)

	created, err := svc.CreateService(ctx, catalogdomain.CreateServiceRequest{
		Name:      "Monthly Bookkeeping",
		BasePrice: 15000,
		Actor:     "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, "monthly-bookkeeping", created.Code)

	_, err = svc.CreateService(ctx, catalogdomain.CreateServiceRequest{
		Name:      "Monthly Bookkeeping",
		BasePrice: 9000,
		Actor:     "tester",
	})
	assert.ErrorIs(t, err, catalogdomain.ErrDuplicateServiceCode)
}

func TestServiceValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, _ := newCatalogService(t, db)

	_, err := svc.CreateService(ctx, catalogdomain.CreateServiceRequest{Name: "   "})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidName)

	_, err = svc.CreateService(ctx, catalogdomain.CreateServiceRequest{
		Name:      "Audit",
		BasePrice: -1,
	})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidBasePrice)

	_, err = svc.GetService(ctx, "zero")
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidID)
}

func TestUpdateServicePriceDoesNotTouchExistingAmounts(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, node := newCatalogService(t, db)

	created, err := svc.CreateService(ctx, catalogdomain.CreateServiceRequest{
		Name:      "Hosting",
		BasePrice: 2000,
		Actor:     "tester",
	})
	require.NoError(t, err)

	// An existing ledger entry snapshotted the old price.
	now := time.Now().UTC()
	paymentID := node.Generate()
	require.NoError(t, db.Exec(
		`INSERT INTO payments (id, client_id, service_id, payment_type, due_date, amount, is_paid, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		paymentID, node.Generate(), created.ID, "PERIODIC", now, 2000, false, "tester", now, now,
	).Error)

	newPrice := int64(2500)
	updated, err := svc.UpdateService(ctx, catalogdomain.UpdateServiceRequest{
		ID:        created.ID.String(),
		BasePrice: &newPrice,
		Actor:     "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), updated.BasePrice)

	var amount int64
	require.NoError(t, db.Raw(`SELECT amount FROM payments WHERE id = ?`, paymentID).Scan(&amount).Error)
	assert.Equal(t, int64(2000), amount)
}

func TestClientMetadataPersists(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc, _ := newCatalogService(t, db)

	client, err := svc.CreateClient(ctx, catalogdomain.CreateClientRequest{
		Name:     "Acme Corp",
		Metadata: datatypes.JSONMap{"segment": "smb", "seats": float64(12)},
		Actor:    "tester",
	})
	require.NoError(t, err)

	fetched, err := svc.GetClient(ctx, client.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "smb", fetched.Metadata["segment"])
	assert.Equal(t, float64(12), fetched.Metadata["seats"])

	// An update without metadata leaves the stored map alone.
	name := "Acme Corporation"
	_, err = svc.UpdateClient(ctx, catalogdomain.UpdateClientRequest{
		ID:    client.ID.String(),
		Name:  &name,
		Actor: "tester",
	})
	require.NoError(t, err)

	fetched, err = svc.GetClient(ctx, client.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "smb", fetched.Metadata["segment"])

	// A non-nil metadata replaces it wholesale.
	updated, err := svc.UpdateClient(ctx, catalogdomain.UpdateClientRequest{
		ID:       client.ID.String(),
		Metadata: datatypes.JSONMap{"segment": "enterprise"},
		Actor:    "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, "enterprise", updated.Metadata["segment"])
	_, ok := updated.Metadata["seats"]
	assert.False(t, ok)
}
