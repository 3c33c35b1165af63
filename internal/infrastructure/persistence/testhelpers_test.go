package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with the full schema.
// A single connection keeps the in-memory database alive and serializes
// transactions the way a postgres row lock would for one owner.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newMockGormDB wraps sqlmock in a postgres dialector
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgresDialector(mockDB), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

func postgresDialector(conn *sql.DB) gorm.Dialector {
	return postgres.New(postgres.Config{
		Conn:       conn,
		DriverName: "postgres",
	})
}

func seedUser(t *testing.T, db *gorm.DB, email string) *identity.User {
	t.Helper()
	u, err := identity.NewUser("Seller "+email, email, "password123")
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Create(context.Background(), u))
	return u
}

func seedClient(t *testing.T, db *gorm.DB, userID uuid.UUID, name string) *client.Client {
	t.Helper()
	c, err := client.NewClient(userID, client.Details{Name: name, Email: "billing@" + name + ".test"})
	require.NoError(t, err)
	require.NoError(t, NewGormClientRepository(db).Save(context.Background(), c))
	return c
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func invoiceInput(clientID uuid.UUID, on string, lines ...[2]string) invoice.Input {
	in := invoice.Input{
		ClientID:    clientID,
		InvoiceDate: date(on),
		DueDate:     date(on).AddDate(0, 0, 14),
	}
	for _, l := range lines {
		in.Items = append(in.Items, invoice.ItemInput{
			Description: "Work",
			Unit:        "h",
			Quantity:    dec(l[0]),
			Price:       dec(l[1]),
		})
	}
	return in
}

func createInvoice(t *testing.T, repo *GormInvoiceRepository, userID uuid.UUID, in invoice.Input) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.NewInvoice(userID, in)
	require.NoError(t, err)
	require.NoError(t, repo.CreateNumbered(context.Background(), inv))
	return inv
}
