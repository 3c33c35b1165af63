package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockInvoiceRepository is a mock implementation of invoice.Repository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) CreateNumbered(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Replace(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status invoice.Status) error {
	args := m.Called(ctx, userID, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, userID uuid.UUID, filter invoice.ListFilter) ([]invoice.Invoice, int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]invoice.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) InvoiceDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockInvoiceRepository) FindUnpaid(ctx context.Context, userID uuid.UUID) ([]invoice.Invoice, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindLatest(ctx context.Context, userID uuid.UUID, limit int) ([]invoice.Invoice, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) AmountsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]invoice.Amount, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Get(0).([]invoice.Amount), args.Error(1)
}

// MockClientRepository is a mock implementation of client.Repository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindAllForUser(ctx context.Context, userID uuid.UUID) ([]client.Client, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]client.Client), args.Error(1)
}

func (m *MockClientRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*client.Client, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Client), args.Error(1)
}

func (m *MockClientRepository) FindLatestForUser(ctx context.Context, userID uuid.UUID, limit int) ([]client.Client, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]client.Client), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, c *client.Client) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockClientRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockClientRepository) StatsForUser(ctx context.Context, userID uuid.UUID) ([]client.Stats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]client.Stats), args.Error(1)
}

type fixture struct {
	svc      *InvoiceService
	invoices *MockInvoiceRepository
	clients  *MockClientRepository
	owner    uuid.UUID
	client   *client.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	invoices := new(MockInvoiceRepository)
	clients := new(MockClientRepository)
	owner := uuid.New()
	c, err := client.NewClient(owner, client.Details{Name: "UAB Pirkėjas"})
	require.NoError(t, err)
	return &fixture{
		svc:      NewInvoiceService(invoices, clients, nil, zap.NewNop()),
		invoices: invoices,
		clients:  clients,
		owner:    owner,
		client:   c,
	}
}

func (f *fixture) request() InvoiceRequest {
	return InvoiceRequest{
		ClientID:    f.client.ID.String(),
		InvoiceDate: "2024-03-01",
		DueDate:     "2024-03-15",
		Notes:       "Thank you",
		Items: []ItemRequest{
			{Description: "Consulting", Unit: "h", Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(50)},
			{Description: "Hosting", Unit: "mo", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(100)},
		},
	}
}

func TestInvoiceService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("computes totals and returns the reserved number", func(t *testing.T) {
		f := newFixture(t)
		f.clients.On("FindByIDForUser", mock.Anything, f.owner, f.client.ID).Return(f.client, nil)
		f.invoices.On("CreateNumbered", mock.Anything, mock.AnythingOfType("*invoice.Invoice")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*invoice.Invoice).AssignNumber("INV", 7)
			}).
			Return(nil)

		resp, err := f.svc.Create(ctx, f.owner, f.request())
		require.NoError(t, err)
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, "200.00", resp.Total.StringFixed(2))
		require.Len(t, resp.Items, 2)
		assert.True(t, resp.Items[0].Total.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, 0, resp.Items[0].Position)
		assert.Equal(t, "INV", resp.Series)
		assert.Equal(t, int64(7), resp.Number)
		assert.Equal(t, "0000007", resp.DisplayNumber)
		assert.Equal(t, "draft", resp.Status)
		assert.Equal(t, "2024-03-01", resp.InvoiceDate)
		require.NotNil(t, resp.Client)
		assert.Equal(t, "UAB Pirkėjas", resp.Client.Name)
		f.invoices.AssertExpectations(t)
	})

	t.Run("client of another owner is not found and nothing is written", func(t *testing.T) {
		f := newFixture(t)
		f.clients.On("FindByIDForUser", mock.Anything, f.owner, f.client.ID).Return(nil, client.ErrNotFound)

		_, err := f.svc.Create(ctx, f.owner, f.request())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		f.invoices.AssertNotCalled(t, "CreateNumbered", mock.Anything, mock.Anything)
	})

	t.Run("invalid item fails before any lookup", func(t *testing.T) {
		f := newFixture(t)
		req := f.request()
		req.Items[1].Price = decimal.NewFromInt(-1)

		_, err := f.svc.Create(ctx, f.owner, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Item 2")
		f.clients.AssertNotCalled(t, "FindByIDForUser", mock.Anything, mock.Anything, mock.Anything)
		f.invoices.AssertNotCalled(t, "CreateNumbered", mock.Anything, mock.Anything)
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		f := newFixture(t)
		req := f.request()
		req.DueDate = "15/03/2024"

		_, err := f.svc.Create(ctx, f.owner, req)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_DUE_DATE", de.Code)
	})

	t.Run("storage failure is returned", func(t *testing.T) {
		f := newFixture(t)
		f.clients.On("FindByIDForUser", mock.Anything, f.owner, f.client.ID).Return(f.client, nil)
		f.invoices.On("CreateNumbered", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		_, err := f.svc.Create(ctx, f.owner, f.request())
		assert.EqualError(t, err, "connection reset")
	})
}

func TestInvoiceService_Update_ReplacesItemsKeepsNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	input, err := f.request().ToInput()
	require.NoError(t, err)
	existing, err := invoice.NewInvoice(f.owner, input)
	require.NoError(t, err)
	existing.AssignNumber("SER", 12)

	f.invoices.On("FindByIDForUser", mock.Anything, f.owner, existing.ID).Return(existing, nil)
	f.clients.On("FindByIDForUser", mock.Anything, f.owner, f.client.ID).Return(f.client, nil)
	f.invoices.On("Replace", mock.Anything, existing).Return(nil)

	req := f.request()
	req.Items = []ItemRequest{
		{Description: "Audit", Unit: "pcs", Quantity: decimal.RequireFromString("1.5"), Price: decimal.NewFromInt(10)},
	}
	resp, err := f.svc.Update(ctx, f.owner, existing.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "SER", resp.Series)
	assert.Equal(t, int64(12), resp.Number)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Audit", resp.Items[0].Description)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(15)))
	f.invoices.AssertExpectations(t)
}

func TestInvoiceService_Update_OtherOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := uuid.New()
	f.invoices.On("FindByIDForUser", mock.Anything, f.owner, id).Return(nil, invoice.ErrNotFound)

	_, err := f.svc.Update(ctx, f.owner, id, f.request())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	f.invoices.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestInvoiceService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	input, err := f.request().ToInput()
	require.NoError(t, err)
	inv, err := invoice.NewInvoice(f.owner, input)
	require.NoError(t, err)
	inv.Status = invoice.StatusPaid

	f.invoices.On("UpdateStatus", mock.Anything, f.owner, inv.ID, invoice.StatusPaid).Return(nil)
	f.invoices.On("FindByIDForUser", mock.Anything, f.owner, inv.ID).Return(inv, nil)

	resp, err := f.svc.UpdateStatus(ctx, f.owner, inv.ID, StatusRequest{Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)

	_, err = f.svc.UpdateStatus(ctx, f.owner, inv.ID, StatusRequest{Status: "void"})
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_STATUS", de.Code)
}

func TestInvoiceService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := uuid.New()
	f.invoices.On("DeleteForUser", mock.Anything, f.owner, id).Return(nil)

	require.NoError(t, f.svc.Delete(ctx, f.owner, id))
	f.invoices.AssertExpectations(t)
}

func TestInvoiceService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("builds filter and paginates", func(t *testing.T) {
		f := newFixture(t)
		f.invoices.On("List", mock.Anything, f.owner, mock.MatchedBy(func(lf invoice.ListFilter) bool {
			return lf.Page == 2 && lf.PageSize == 100 &&
				lf.OrderBy == invoice.SortByClientName && lf.OrderDir == "asc" &&
				lf.Month != nil && lf.Month.From.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) &&
				lf.Status != nil && *lf.Status == invoice.StatusSent &&
				lf.ClientID != nil && *lf.ClientID == f.client.ID
		})).Return([]invoice.Invoice{}, int64(150), nil)

		page, err := f.svc.List(ctx, f.owner, ListQuery{
			Month:    "2024-02",
			ClientID: f.client.ID.String(),
			Status:   "sent",
			SortBy:   "client_name",
			SortDir:  "asc",
			Page:     2,
			PerPage:  500,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(150), page.Total)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 100, page.PageSize)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("defaults", func(t *testing.T) {
		f, err := ListQuery{}.ToFilter()
		require.NoError(t, err)
		assert.Equal(t, 1, f.Page)
		assert.Equal(t, 10, f.PageSize)
		assert.Equal(t, invoice.SortByInvoiceDate, f.OrderBy)
		assert.Equal(t, "desc", f.OrderDir)
		assert.Nil(t, f.Month)
	})

	t.Run("bad month", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.List(ctx, f.owner, ListQuery{Month: "2024/02"})
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_MONTH", de.Code)
	})
}

func TestInvoiceService_Months(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.invoices.On("InvoiceDates", mock.Anything, f.owner).Return([]time.Time{
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
	}, nil)

	months, err := f.svc.Months(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03", "2024-01"}, months)
}
