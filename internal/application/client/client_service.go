package client

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"go.uber.org/zap"
)

// ClientService manages the customer records of a seller.
// Every operation is scoped to ownerID; a record of another owner is reported
// as not found.
type ClientService struct {
	repo   client.Repository
	logger *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(repo client.Repository, logger *zap.Logger) *ClientService {
	return &ClientService{
		repo:   repo,
		logger: logger,
	}
}

// List returns all clients of the owner ordered by name
func (s *ClientService) List(ctx context.Context, ownerID uuid.UUID) ([]ClientResponse, error) {
	clients, err := s.repo.FindAllForUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]ClientResponse, len(clients))
	for i := range clients {
		out[i] = ToClientResponse(&clients[i])
	}
	return out, nil
}

// Create registers a new client for the owner
func (s *ClientService) Create(ctx context.Context, ownerID uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	c, err := client.NewClient(ownerID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Client created",
		zap.String("user_id", ownerID.String()),
		zap.String("client_id", c.ID.String()),
	)
	resp := ToClientResponse(c)
	return &resp, nil
}

// Get returns one client of the owner
func (s *ClientService) Get(ctx context.Context, ownerID, id uuid.UUID) (*ClientResponse, error) {
	c, err := s.repo.FindByIDForUser(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToClientResponse(c)
	return &resp, nil
}

// Update replaces the allow-listed fields of an owned client
func (s *ClientService) Update(ctx context.Context, ownerID, id uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	c, err := s.repo.FindByIDForUser(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToClientResponse(c)
	return &resp, nil
}

// Delete removes an owned client. Clients referenced by invoices are kept and
// client.ErrHasInvoices is returned.
func (s *ClientService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.repo.DeleteForUser(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info("Client deleted",
		zap.String("user_id", ownerID.String()),
		zap.String("client_id", id.String()),
	)
	return nil
}

// Stats returns per-client invoice rollups, highest total first
func (s *ClientService) Stats(ctx context.Context, ownerID uuid.UUID) ([]ClientStatsResponse, error) {
	stats, err := s.repo.StatsForUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalAmount.GreaterThan(stats[j].TotalAmount)
	})

	out := make([]ClientStatsResponse, len(stats))
	for i, st := range stats {
		out[i] = ClientStatsResponse{
			ClientID:     st.ClientID,
			Name:         st.Name,
			InvoiceCount: st.InvoiceCount,
			TotalAmount:  st.TotalAmount,
			UnpaidAmount: st.UnpaidAmount,
		}
	}
	return out, nil
}
