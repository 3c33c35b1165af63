package client

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockClientRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockClientRepository) StatsForUser(ctx context.Context, userID uuid.UUID) ([]client.Stats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]client.Stats), args.Error(1)
}

func newTestService() (*ClientService, *MockClientRepository) {
	repo := new(MockClientRepository)
	return NewClientService(repo, zap.NewNop()), repo
}

func TestClientService_Create(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("saves client owned by caller", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("Save", ctx, mock.MatchedBy(func(c *client.Client) bool {
			return c.UserID == owner && c.Name == "UAB Pirkėjas"
		})).Return(nil)

		resp, err := svc.Create(ctx, owner, ClientRequest{Name: " UAB Pirkėjas ", Email: "pirkejas@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "UAB Pirkėjas", resp.Name)
		assert.Equal(t, "pirkejas@example.com", resp.Email)
		repo.AssertExpectations(t)
	})

	t.Run("rejects invalid input before saving", func(t *testing.T) {
		svc, repo := newTestService()

		_, err := svc.Create(ctx, owner, ClientRequest{Name: ""})
		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestClientService_Get_OtherOwnerIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	owner, id := uuid.New(), uuid.New()
	repo.On("FindByIDForUser", ctx, owner, id).Return(nil, client.ErrNotFound)

	_, err := svc.Get(ctx, owner, id)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestClientService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	owner := uuid.New()
	existing, err := client.NewClient(owner, client.Details{Name: "Old", Phone: "+370600"})
	require.NoError(t, err)

	repo.On("FindByIDForUser", ctx, owner, existing.ID).Return(existing, nil)
	repo.On("Save", ctx, existing).Return(nil)

	resp, err := svc.Update(ctx, owner, existing.ID, ClientRequest{Name: "New", Notes: "VIP"})
	require.NoError(t, err)
	assert.Equal(t, "New", resp.Name)
	assert.Equal(t, "VIP", resp.Notes)
	assert.Empty(t, resp.Phone)
	repo.AssertExpectations(t)
}

func TestClientService_Delete_HasInvoices(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	owner, id := uuid.New(), uuid.New()
	repo.On("DeleteForUser", ctx, owner, id).Return(client.ErrHasInvoices)

	err := svc.Delete(ctx, owner, id)
	assert.True(t, errors.Is(err, shared.ErrConflict))
	assert.Equal(t, "Client has invoices and cannot be deleted", err.Error())
}

func TestClientService_List(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	owner := uuid.New()
	a, _ := client.NewClient(owner, client.Details{Name: "Alpha"})
	b, _ := client.NewClient(owner, client.Details{Name: "Beta"})
	repo.On("FindAllForUser", ctx, owner).Return([]client.Client{*a, *b}, nil)

	out, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Alpha", out[0].Name)
	assert.Equal(t, "Beta", out[1].Name)
}

func TestClientService_Stats_OrderedByTotal(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	owner := uuid.New()
	repo.On("StatsForUser", ctx, owner).Return([]client.Stats{
		{ClientID: uuid.New(), Name: "Small", InvoiceCount: 1, TotalAmount: decimal.NewFromInt(10), UnpaidAmount: decimal.Zero},
		{ClientID: uuid.New(), Name: "Big", InvoiceCount: 3, TotalAmount: decimal.NewFromInt(300), UnpaidAmount: decimal.NewFromInt(100)},
	}, nil)

	out, err := svc.Stats(ctx, owner)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Big", out[0].Name)
	assert.True(t, out[0].UnpaidAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Small", out[1].Name)
}
