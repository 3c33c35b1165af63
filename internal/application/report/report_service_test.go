package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockInvoiceRepository struct {
	mock.Mock
	invoice.Repository
}

func (m *mockInvoiceRepository) AmountsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]invoice.Amount, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Get(0).([]invoice.Amount), args.Error(1)
}

func (m *mockInvoiceRepository) FindLatest(ctx context.Context, userID uuid.UUID, limit int) ([]invoice.Invoice, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]invoice.Invoice), args.Error(1)
}

type mockClientRepository struct {
	mock.Mock
	client.Repository
}

func (m *mockClientRepository) FindLatestForUser(ctx context.Context, userID uuid.UUID, limit int) ([]client.Client, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]client.Client), args.Error(1)
}

var fixedNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func newService() (*ReportService, *mockInvoiceRepository, *mockClientRepository) {
	invoices := new(mockInvoiceRepository)
	clients := new(mockClientRepository)
	svc := NewReportService(invoices, clients)
	svc.now = func() time.Time { return fixedNow }
	return svc, invoices, clients
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReportService_Stats(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("current month uses daily buckets", func(t *testing.T) {
		svc, invoices, _ := newService()
		invoices.On("AmountsBetween", mock.Anything, owner, date(2024, 5, 1), date(2024, 5, 31)).
			Return([]invoice.Amount{
				{InvoiceDate: date(2024, 5, 2), Total: decimal.NewFromInt(200)},
				{InvoiceDate: date(2024, 5, 2), Total: decimal.NewFromInt(50)},
				{InvoiceDate: date(2024, 5, 10), Total: decimal.RequireFromString("12.5")},
			}, nil)

		resp, err := svc.Stats(ctx, owner, "")
		require.NoError(t, err)
		assert.Equal(t, "1m", resp.Period)
		require.Len(t, resp.Chart, 2)
		assert.Equal(t, "2024-05-02", resp.Chart[0].Date)
		assert.Empty(t, resp.Chart[0].Month)
		assert.Equal(t, int64(2), resp.Chart[0].Count)
		assert.True(t, resp.Chart[0].Total.Equal(decimal.NewFromInt(250)))
		assert.Equal(t, int64(3), resp.Summary.TotalInvoices)
		assert.True(t, resp.Summary.TotalAmount.Equal(decimal.RequireFromString("262.5")))
	})

	t.Run("six months uses monthly buckets", func(t *testing.T) {
		svc, invoices, _ := newService()
		invoices.On("AmountsBetween", mock.Anything, owner, date(2023, 11, 20), date(2024, 5, 31)).
			Return([]invoice.Amount{
				{InvoiceDate: date(2024, 1, 2), Total: decimal.NewFromInt(1)},
			}, nil)

		resp, err := svc.Stats(ctx, owner, "6m")
		require.NoError(t, err)
		require.Len(t, resp.Chart, 1)
		assert.Equal(t, "2024-01", resp.Chart[0].Month)
		assert.Empty(t, resp.Chart[0].Date)
	})

	t.Run("no invoices gives empty chart and zero summary", func(t *testing.T) {
		svc, invoices, _ := newService()
		invoices.On("AmountsBetween", mock.Anything, owner, mock.Anything, mock.Anything).
			Return([]invoice.Amount{}, nil)

		resp, err := svc.Stats(ctx, owner, "bogus")
		require.NoError(t, err)
		assert.Equal(t, "1m", resp.Period)
		assert.NotNil(t, resp.Chart)
		assert.Empty(t, resp.Chart)
		assert.Equal(t, int64(0), resp.Summary.TotalInvoices)
		assert.True(t, resp.Summary.TotalAmount.IsZero())
	})
}

func TestReportService_Activity(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	svc, invoices, clients := newService()

	c, err := client.NewClient(owner, client.Details{Name: "UAB Pirkėjas"})
	require.NoError(t, err)
	c.CreatedAt = fixedNow.Add(-2 * time.Hour)

	inv := invoice.Invoice{
		Series: "INV",
		Number: 42,
		Total:  decimal.NewFromInt(200),
		Client: c,
	}
	inv.ID = uuid.New()
	inv.CreatedAt = fixedNow.Add(-time.Hour)

	clients.On("FindLatestForUser", mock.Anything, owner, 10).Return([]client.Client{*c}, nil)
	invoices.On("FindLatest", mock.Anything, owner, 10).Return([]invoice.Invoice{inv}, nil)

	feed, err := svc.Activity(ctx, owner)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	assert.Equal(t, "invoice", feed[0].Type)
	assert.Equal(t, "INV 42", feed[0].Title)
	assert.Equal(t, "UAB Pirkėjas", feed[0].Subtitle)
	require.NotNil(t, feed[0].Total)
	assert.True(t, feed[0].Total.Equal(decimal.NewFromInt(200)))

	assert.Equal(t, "client", feed[1].Type)
	assert.Equal(t, "UAB Pirkėjas", feed[1].Title)
	assert.Nil(t, feed[1].Total)
}
