package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogrepo "github.com/smallbiznis/duebook/internal/catalog/repository"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	paymentrepo "github.com/smallbiznis/duebook/internal/payment/repository"
	"github.com/smallbiznis/duebook/internal/schedule"
	subscriptiondomain "github.com/smallbiznis/duebook/internal/subscription/domain"
	subscriptionrepo "github.com/smallbiznis/duebook/internal/subscription/repository"
	subscriptionservice "github.com/smallbiznis/duebook/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
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
		`CREATE TABLE subscriptions (
			id BIGINT PRIMARY KEY,
			client_id BIGINT NOT NULL,
			service_id BIGINT NOT NULL,
			billing_mode TEXT NOT NULL,
			period TEXT,
			charge_day SMALLINT,
			custom_price BIGINT,
			start_date DATETIME NOT NULL,
			next_payment_date DATETIME,
			last_paid_date DATETIME,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
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
		`CREATE INDEX idx_payments_subscription_due ON payments(subscription_id, due_date)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func seedClient(t *testing.T, db *gorm.DB, id snowflake.ID) {
	t.Helper()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO clients (id, name, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, "Acme Corp", true, now, now,
	).Error
	require.NoError(t, err)
}

func seedService(t *testing.T, db *gorm.DB, id snowflake.ID, basePrice int64) {
	t.Helper()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO services (id, code, name, base_price, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, fmt.Sprintf("svc-%d", id), "Bookkeeping", basePrice, true, now, now,
	).Error
	require.NoError(t, err)
}

func newSubscriptionService(db *gorm.DB, node *snowflake.Node) subscriptiondomain.Service {
	return subscriptionservice.NewService(subscriptionservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        subscriptionrepo.Provide(),
		PaymentRepo: paymentrepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
	})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreatePeriodicSubscriptionMaterializesFirstPayment(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientID := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientID)
	seedService(t, db, serviceID, 5000)

	period := schedule.PeriodMonthly
	chargeDay := 15
	sub, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		ClientID:    clientID.String(),
		ServiceID:   serviceID.String(),
		BillingMode: subscriptiondomain.BillingModePeriodic,
		Period:      &period,
		ChargeDay:   &chargeDay,
		StartDate:   date(2024, time.January, 20),
		Actor:       "tester",
	})
	require.NoError(t, err)

	// Start date is past the charge day, so the first due date rolls into
	// February.
	require.NotNil(t, sub.NextPaymentDate)
	assert.Equal(t, date(2024, time.February, 15), *sub.NextPaymentDate)

	payments, err := paymentrepo.Provide().ListUnpaidBySubscription(ctx, db, sub.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, date(2024, time.February, 15), schedule.DateOnly(payments[0].DueDate))
	assert.Equal(t, int64(5000), payments[0].Amount)
	assert.Equal(t, paymentdomain.PaymentTypePeriodic, payments[0].PaymentType)
	assert.Equal(t, "tester", payments[0].CreatedBy)
}

func TestCreateSubscriptionCustomPriceOverridesBase(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientID := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientID)
	seedService(t, db, serviceID, 5000)

	period := schedule.PeriodMonthly
	custom := int64(3200)
	sub, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		ClientID:    clientID.String(),
		ServiceID:   serviceID.String(),
		BillingMode: subscriptiondomain.BillingModePeriodic,
		Period:      &period,
		CustomPrice: &custom,
		StartDate:   date(2024, time.March, 1),
		Actor:       "tester",
	})
	require.NoError(t, err)

	payments, err := paymentrepo.Provide().ListUnpaidBySubscription(ctx, db, sub.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(3200), payments[0].Amount)
}

func TestCreateOneOffSubscriptionHasNoCursor(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientID := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientID)
	seedService(t, db, serviceID, 1500)

	sub, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		ClientID:    clientID.String(),
		ServiceID:   serviceID.String(),
		BillingMode: subscriptiondomain.BillingModeOneOff,
		StartDate:   date(2024, time.May, 10),
		Actor:       "tester",
	})
	require.NoError(t, err)
	assert.Nil(t, sub.NextPaymentDate)

	payments, err := paymentrepo.Provide().ListUnpaidBySubscription(ctx, db, sub.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, date(2024, time.May, 10), schedule.DateOnly(payments[0].DueDate))
	assert.Equal(t, paymentdomain.PaymentTypeOneOff, payments[0].PaymentType)
}

func TestCreateInactiveSubscriptionSkipsFirstPayment(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientID := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientID)
	seedService(t, db, serviceID, 1500)

	period := schedule.PeriodMonthly
	inactive := false
	sub, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		ClientID:    clientID.String(),
		ServiceID:   serviceID.String(),
		BillingMode: subscriptiondomain.BillingModePeriodic,
		Period:      &period,
		StartDate:   date(2024, time.May, 10),
		IsActive:    &inactive,
		Actor:       "tester",
	})
	require.NoError(t, err)

	payments, err := paymentrepo.Provide().ListUnpaidBySubscription(ctx, db, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestCreateSubscriptionValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientID := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientID)
	seedService(t, db, serviceID, 1000)

	period := schedule.PeriodMonthly
	badDay := 32

	tests := []struct {
		name string
		req  subscriptiondomain.CreateSubscriptionRequest
		want error
	}{
		{
			name: "periodic without period",
			req: subscriptiondomain.CreateSubscriptionRequest{
				ClientID:    clientID.String(),
				ServiceID:   serviceID.String(),
				BillingMode: subscriptiondomain.BillingModePeriodic,
				StartDate:   date(2024, time.January, 1),
			},
			want: subscriptiondomain.ErrPeriodRequired,
		},
		{
			name: "charge day out of range",
			req: subscriptiondomain.CreateSubscriptionRequest{
				ClientID:    clientID.String(),
				ServiceID:   serviceID.String(),
				BillingMode: subscriptiondomain.BillingModePeriodic,
				Period:      &period,
				ChargeDay:   &badDay,
				StartDate:   date(2024, time.January, 1),
			},
			want: subscriptiondomain.ErrInvalidChargeDay,
		},
		{
			name: "unknown billing mode",
			req: subscriptiondomain.CreateSubscriptionRequest{
				ClientID:    clientID.String(),
				ServiceID:   serviceID.String(),
				BillingMode: "HOURLY",
				StartDate:   date(2024, time.January, 1),
			},
			want: subscriptiondomain.ErrInvalidBillingMode,
		},
		{
			name: "zero start date",
			req: subscriptiondomain.CreateSubscriptionRequest{
				ClientID:    clientID.String(),
				ServiceID:   serviceID.String(),
				BillingMode: subscriptiondomain.BillingModeOneOff,
			},
			want: subscriptiondomain.ErrInvalidStartDate,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUpdateSubscriptionRecomputesUnsetCursor(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientID := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientID)
	seedService(t, db, serviceID, 1000)

	// Seed a periodic subscription whose cursor was never set, as legacy
	// records imported from spreadsheets look.
	subID := node.Generate()
	now := time.Now().UTC()
	require.NoError(t, db.Exec(
		`INSERT INTO subscriptions (id, client_id, service_id, billing_mode, period, charge_day, start_date, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subID, clientID, serviceID, "PERIODIC", "MONTHLY", 10, date(2024, time.January, 5), true, now, now,
	).Error)

	updated, err := svc.Update(ctx, subscriptiondomain.UpdateSubscriptionRequest{
		ID:    subID.String(),
		Actor: "tester",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.NextPaymentDate)
	assert.Equal(t, date(2024, time.January, 10), *updated.NextPaymentDate)
}

func TestUpdateSubscriptionTrustsExplicitCursor(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientID := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientID)
	seedService(t, db, serviceID, 1000)

	period := schedule.PeriodMonthly
	sub, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		ClientID:    clientID.String(),
		ServiceID:   serviceID.String(),
		BillingMode: subscriptiondomain.BillingModePeriodic,
		Period:      &period,
		StartDate:   date(2024, time.January, 5),
		Actor:       "tester",
	})
	require.NoError(t, err)

	manual := date(2024, time.June, 1)
	updated, err := svc.Update(ctx, subscriptiondomain.UpdateSubscriptionRequest{
		ID:              sub.ID.String(),
		NextPaymentDate: &manual,
		Actor:           "tester",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.NextPaymentDate)
	assert.Equal(t, manual, *updated.NextPaymentDate)
}

func TestDeleteSubscriptionPreservesPaidHistory(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientID := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientID)
	seedService(t, db, serviceID, 1000)

	period := schedule.PeriodMonthly
	sub, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		ClientID:    clientID.String(),
		ServiceID:   serviceID.String(),
		BillingMode: subscriptiondomain.BillingModePeriodic,
		Period:      &period,
		StartDate:   date(2024, time.January, 5),
		Actor:       "tester",
	})
	require.NoError(t, err)

	// One settled entry and one open one.
	paidDue := date(2023, time.December, 5)
	now := time.Now().UTC()
	require.NoError(t, db.Exec(
		`INSERT INTO payments (id, client_id, service_id, subscription_id, payment_type, due_date, amount, is_paid, paid_date, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		node.Generate(), clientID, serviceID, sub.ID, "PERIODIC", paidDue, 1000, true, paidDue, "tester", now, now,
	).Error)

	require.NoError(t, svc.Delete(ctx, sub.ID.String(), "tester"))

	_, err = svc.GetByID(ctx, sub.ID.String())
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionNotFound)

	var remaining []paymentdomain.Payment
	require.NoError(t, db.Raw(`SELECT * FROM payments WHERE subscription_id = ?`, sub.ID).Scan(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].IsPaid)
}

func TestListSubscriptionsFilterByClient(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientA := node.Generate()
	clientB := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientA)
	seedClient(t, db, clientB)
	seedService(t, db, serviceID, 1000)

	period := schedule.PeriodMonthly
	for _, clientID := range []snowflake.ID{clientA, clientA, clientB} {
		_, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
			ClientID:    clientID.String(),
			ServiceID:   serviceID.String(),
			BillingMode: subscriptiondomain.BillingModePeriodic,
			Period:      &period,
			StartDate:   date(2024, time.January, 5),
			Actor:       "tester",
		})
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, subscriptiondomain.ListSubscriptionRequest{
		Filters: []subscriptiondomain.Filter{
			{Field: subscriptiondomain.FilterClient, Value: clientA.String()},
		},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Subscriptions, 2)
	assert.False(t, resp.HasMore)

	_, err = svc.List(ctx, subscriptiondomain.ListSubscriptionRequest{
		Filters: []subscriptiondomain.Filter{{Field: "plan", Value: "x"}},
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidFilter)
}

func TestListSubscriptionsPagination(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientID := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientID)
	seedService(t, db, serviceID, 1000)

	period := schedule.PeriodMonthly
	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
			ClientID:    clientID.String(),
			ServiceID:   serviceID.String(),
			BillingMode: subscriptiondomain.BillingModePeriodic,
			Period:      &period,
			StartDate:   date(2024, time.January, 5),
			Actor:       "tester",
		})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, subscriptiondomain.ListSubscriptionRequest{PageSize: 3})
	require.NoError(t, err)
	require.Len(t, first.Subscriptions, 3)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(ctx, subscriptiondomain.ListSubscriptionRequest{
		PageSize:  3,
		PageToken: first.NextPageToken,
	})
	require.NoError(t, err)
	assert.Len(t, second.Subscriptions, 2)
	assert.False(t, second.HasMore)
}

func TestSubscriptionMetadataPersists(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t)
	svc := newSubscriptionService(db, node)

	clientID := node.Generate()
	serviceID := node.Generate()
	seedClient(t, db, clientID)
	seedService(t, db, serviceID, 1000)

	period := schedule.PeriodMonthly
	sub, err := svc.Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
		ClientID:    clientID.String(),
		ServiceID:   serviceID.String(),
		BillingMode: subscriptiondomain.BillingModePeriodic,
		Period:      &period,
		StartDate:   date(2024, time.January, 1),
		Metadata:    datatypes.JSONMap{"contract": "C-1001"},
		Actor:       "tester",
	})
	require.NoError(t, err)

	fetched, err := svc.GetByID(ctx, sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "C-1001", fetched.Metadata["contract"])

	updated, err := svc.Update(ctx, subscriptiondomain.UpdateSubscriptionRequest{
		ID:       sub.ID.String(),
		Metadata: datatypes.JSONMap{"contract": "C-1002"},
		Actor:    "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, "C-1002", updated.Metadata["contract"])

	fetched, err = svc.GetByID(ctx, sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "C-1002", fetched.Metadata["contract"])
}
