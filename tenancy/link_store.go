// Package tenancy tracks which customers an organization can see. Visibility
// comes from two sources: customers created by the organization's own staff,
// and customers linked through an approved connection. The scope builder
// unions the two sets; nothing in this package consults permissions.
package tenancy

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stackwise/go-access/pkg/types"
	"github.com/uptrace/bun"
)

var (
	// ErrLinkNotFound indicates no connection row exists for the pair.
	ErrLinkNotFound = errors.New("go-access: customer connection not found")
	// ErrLinkExists indicates a connection request already exists for the pair.
	ErrLinkExists = errors.New("go-access: customer connection already exists")
	// ErrInvalidTransition indicates the requested status change is not
	// allowed from the link's current status.
	ErrInvalidTransition = errors.New("go-access: invalid connection status transition")
	// ErrCustomerNameRequired occurs when a customer is created without a name.
	ErrCustomerNameRequired = errors.New("go-access: customer name required")
	// ErrCustomerNotFound indicates the customer does not exist or was already
	// merged away.
	ErrCustomerNotFound = errors.New("go-access: customer not found")
)

// LinkStoreConfig configures the Bun-backed link store.
type LinkStoreConfig struct {
	DB          *bun.DB
	Customers   repository.Repository[*Customer]
	Links       repository.Repository[*CustomerOrganization]
	Clock       types.Clock
	Logger      types.Logger
	IDGenerator types.IDGenerator
}

// LinkStore persists customers and their organization connections and answers
// the two visibility questions the scope builder asks.
type LinkStore struct {
	db        *bun.DB
	customers repository.Repository[*Customer]
	links     repository.Repository[*CustomerOrganization]
	clock     types.Clock
	logger    types.Logger
	idGen     types.IDGenerator
}

var _ types.LinkStore = (*LinkStore)(nil)

// NewLinkStore constructs the default store. DB is required; repositories are
// created from it when not supplied.
func NewLinkStore(cfg LinkStoreConfig) (*LinkStore, error) {
	if cfg.DB == nil {
		return nil, errors.New("link store: db required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	idGen := cfg.IDGenerator
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	customers := cfg.Customers
	if customers == nil {
		customers = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Customer]{
			NewRecord: func() *Customer { return &Customer{} },
			GetID: func(customer *Customer) uuid.UUID {
				if customer == nil {
					return uuid.Nil
				}
				return customer.ID
			},
			SetID: func(customer *Customer, id uuid.UUID) {
				if customer != nil {
					customer.ID = id
				}
			},
		})
	}
	links := cfg.Links
	if links == nil {
		links = repository.NewRepository(cfg.DB, repository.ModelHandlers[*CustomerOrganization]{
			NewRecord: func() *CustomerOrganization { return &CustomerOrganization{} },
			GetID: func(*CustomerOrganization) uuid.UUID {
				return uuid.Nil
			},
			SetID: func(*CustomerOrganization, uuid.UUID) {},
		})
	}
	return &LinkStore{
		db:        cfg.DB,
		customers: customers,
		links:     links,
		clock:     clock,
		logger:    logger,
		idGen:     idGen,
	}, nil
}

// CreatedCustomerIDs returns customers created by any user of the
// organization. Merged customers are excluded; their data lives under the
// surviving record.
func (s *LinkStore) CreatedCustomerIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error) {
	if organizationID == uuid.Nil {
		return nil, nil
	}
	var ids []uuid.UUID
	err := s.db.NewSelect().
		Model((*Customer)(nil)).
		Column("c.id").
		Join("JOIN users AS u ON u.id = c.created_by").
		Where("u.organization_id = ?", organizationID).
		Where("c.merged_into_id IS NULL").
		OrderExpr("c.id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ApprovedCustomerIDs returns customers linked to the organization with an
// approved connection. Pending, rejected, and disconnected links grant
// nothing.
func (s *LinkStore) ApprovedCustomerIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error) {
	if organizationID == uuid.Nil {
		return nil, nil
	}
	var ids []uuid.UUID
	err := s.db.NewSelect().
		Model((*CustomerOrganization)(nil)).
		Column("co.customer_id").
		Where("co.organization_id = ?", organizationID).
		Where("co.status = ?", string(types.LinkStatusApproved)).
		OrderExpr("co.customer_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateCustomer inserts a customer record owned by the creating user.
func (s *LinkStore) CreateCustomer(ctx context.Context, name string, createdBy uuid.UUID, isPublic bool) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCustomerNameRequired
	}
	if createdBy == uuid.Nil {
		return nil, types.ErrActorRequired
	}
	now := s.clock.Now()
	customer := &Customer{
		ID:        s.idGen.UUID(),
		Name:      name,
		CreatedBy: createdBy,
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.NewInsert().Model(customer).Exec(ctx); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetCustomer returns one customer record.
func (s *LinkStore) GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	record, err := s.customers.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryNotFound, "go-access: customer not found").
				WithCode(goerrors.CodeNotFound)
		}
		return nil, err
	}
	return record, nil
}

// MergeCustomer marks source as merged into target, removing it from every
// visibility set.
func (s *LinkStore) MergeCustomer(ctx context.Context, sourceID, targetID uuid.UUID) error {
	if sourceID == uuid.Nil || targetID == uuid.Nil || sourceID == targetID {
		return goerrors.New("go-access: merge requires two distinct customer ids", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	result, err := s.db.NewUpdate().
		Model((*Customer)(nil)).
		Set("merged_into_id = ?", targetID).
		Set("updated_at = ?", s.clock.Now()).
		Where("id = ?", sourceID).
		Where("merged_into_id IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// RequestConnection creates a PENDING link between a customer and an
// organization. Only one link row exists per pair; a rejected or disconnected
// link must be re-requested, which resets it to PENDING.
func (s *LinkStore) RequestConnection(ctx context.Context, customerID, organizationID, requestedBy uuid.UUID) error {
	if customerID == uuid.Nil || organizationID == uuid.Nil {
		return goerrors.New("go-access: connection requires customer and organization ids", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	now := s.clock.Now()
	existing, err := s.getLink(ctx, customerID, organizationID)
	switch {
	case err == nil:
		switch types.LinkStatus(existing.Status) {
		case types.LinkStatusPending, types.LinkStatusApproved:
			return goerrors.Wrap(ErrLinkExists, goerrors.CategoryValidation, "go-access: connection already requested").
				WithCode(goerrors.CodeBadRequest)
		}
		return s.setStatus(ctx, customerID, organizationID, types.LinkStatusPending, requestedBy)
	case errors.Is(err, ErrLinkNotFound):
		link := &CustomerOrganization{
			CustomerID:     customerID,
			OrganizationID: organizationID,
			Status:         string(types.LinkStatusPending),
			RequestedBy:    requestedBy,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		_, err := s.db.NewInsert().Model(link).Exec(ctx)
		return err
	default:
		return err
	}
}

// ApproveConnection moves a pending link to APPROVED, granting the
// organization visibility into the customer.
func (s *LinkStore) ApproveConnection(ctx context.Context, customerID, organizationID, decidedBy uuid.UUID) error {
	return s.transition(ctx, customerID, organizationID, decidedBy,
		types.LinkStatusApproved, types.LinkStatusPending)
}

// RejectConnection moves a pending link to REJECTED.
func (s *LinkStore) RejectConnection(ctx context.Context, customerID, organizationID, decidedBy uuid.UUID) error {
	return s.transition(ctx, customerID, organizationID, decidedBy,
		types.LinkStatusRejected, types.LinkStatusPending)
}

// Disconnect moves an approved link to DISCONNECTED, revoking visibility.
func (s *LinkStore) Disconnect(ctx context.Context, customerID, organizationID, decidedBy uuid.UUID) error {
	return s.transition(ctx, customerID, organizationID, decidedBy,
		types.LinkStatusDisconnected, types.LinkStatusApproved)
}

// ListLinks returns every connection row for the organization, newest first.
func (s *LinkStore) ListLinks(ctx context.Context, organizationID uuid.UUID) ([]CustomerOrganization, error) {
	records, _, err := s.links.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("organization_id = ?", organizationID).
			OrderExpr("updated_at DESC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]CustomerOrganization, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	return out, nil
}

func (s *LinkStore) transition(ctx context.Context, customerID, organizationID, decidedBy uuid.UUID, to types.LinkStatus, from ...types.LinkStatus) error {
	link, err := s.getLink(ctx, customerID, organizationID)
	if err != nil {
		return err
	}
	allowed := false
	for _, status := range from {
		if types.LinkStatus(link.Status) == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return goerrors.Wrap(ErrInvalidTransition, goerrors.CategoryValidation,
			"go-access: connection is "+link.Status+", cannot become "+string(to)).
			WithCode(goerrors.CodeBadRequest)
	}
	return s.setStatus(ctx, customerID, organizationID, to, decidedBy)
}

func (s *LinkStore) setStatus(ctx context.Context, customerID, organizationID uuid.UUID, status types.LinkStatus, decidedBy uuid.UUID) error {
	result, err := s.db.NewUpdate().
		Model((*CustomerOrganization)(nil)).
		Set("status = ?", string(status)).
		Set("decided_by = ?", decidedBy).
		Set("updated_at = ?", s.clock.Now()).
		Where("customer_id = ? AND organization_id = ?", customerID, organizationID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (s *LinkStore) getLink(ctx context.Context, customerID, organizationID uuid.UUID) (*CustomerOrganization, error) {
	link := new(CustomerOrganization)
	err := s.db.NewSelect().
		Model(link).
		Where("customer_id = ? AND organization_id = ?", customerID, organizationID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return link, nil
}
