// Package scope builds the row-visibility predicate that restricts every
// multi-tenant read and write to the caller's authorized customers. The
// predicate is layered under the permission resolver and is never widened by
// a permission grant: customer-side users always collapse to a single
// customer equality test.
package scope

import (
	"sort"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// predicateKind discriminates the predicate shapes the builder can produce.
type predicateKind uint8

const (
	kindDenyAll predicateKind = iota
	kindUnrestricted
	kindCustomerEquals
	kindCustomerIn
)

// RowScope carries the tenant-identifying fields of one resource row.
type RowScope struct {
	CustomerID     uuid.UUID
	OrganizationID uuid.UUID
	CreatedBy      uuid.UUID
}

// Predicate is the resolved visibility rule for one request. The zero value
// denies everything, so a forgotten assignment fails closed.
type Predicate struct {
	kind       predicateKind
	customerID uuid.UUID
	customers  map[uuid.UUID]struct{}
}

// Unrestricted admits every row. Only SUPER_ADMIN without an impersonation
// target receives this predicate.
func Unrestricted() Predicate {
	return Predicate{kind: kindUnrestricted}
}

// DenyAll admits no rows.
func DenyAll() Predicate {
	return Predicate{kind: kindDenyAll}
}

// CustomerEquals admits rows belonging to exactly one customer.
func CustomerEquals(customerID uuid.UUID) Predicate {
	if customerID == uuid.Nil {
		return DenyAll()
	}
	return Predicate{kind: kindCustomerEquals, customerID: customerID}
}

// CustomerIn admits rows belonging to any customer in the set. An empty set
// denies everything.
func CustomerIn(customerIDs []uuid.UUID) Predicate {
	set := make(map[uuid.UUID]struct{}, len(customerIDs))
	for _, id := range customerIDs {
		if id == uuid.Nil {
			continue
		}
		set[id] = struct{}{}
	}
	if len(set) == 0 {
		return DenyAll()
	}
	return Predicate{kind: kindCustomerIn, customers: set}
}

// Allows reports whether the row is visible under the predicate. Callers must
// run this check on writes as well as reads; a permission grant alone never
// authorizes touching an out-of-scope row.
func (p Predicate) Allows(row RowScope) bool {
	switch p.kind {
	case kindUnrestricted:
		return true
	case kindCustomerEquals:
		return row.CustomerID == p.customerID
	case kindCustomerIn:
		_, ok := p.customers[row.CustomerID]
		return ok
	}
	return false
}

// IsUnrestricted reports whether the predicate admits every row.
func (p Predicate) IsUnrestricted() bool { return p.kind == kindUnrestricted }

// Empty reports whether the predicate can never admit a row.
func (p Predicate) Empty() bool { return p.kind == kindDenyAll }

// CustomerIDs returns the admitted customer set in sorted order. Unrestricted
// predicates return nil; callers should branch on IsUnrestricted first.
func (p Predicate) CustomerIDs() []uuid.UUID {
	switch p.kind {
	case kindCustomerEquals:
		return []uuid.UUID{p.customerID}
	case kindCustomerIn:
		out := make([]uuid.UUID, 0, len(p.customers))
		for id := range p.customers {
			out = append(out, id)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
		return out
	}
	return nil
}

// Intersect returns the predicate admitting only rows both predicates admit.
func (p Predicate) Intersect(other Predicate) Predicate {
	switch {
	case p.kind == kindDenyAll || other.kind == kindDenyAll:
		return DenyAll()
	case p.kind == kindUnrestricted:
		return other
	case other.kind == kindUnrestricted:
		return p
	}
	ids := make([]uuid.UUID, 0)
	for _, id := range p.CustomerIDs() {
		if other.Allows(RowScope{CustomerID: id}) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 1 {
		return CustomerEquals(ids[0])
	}
	return CustomerIn(ids)
}

// ApplyTo restricts a bun select over a table carrying the customer column.
// The column name defaults to customer_id; pass an override for tables that
// embed the scope under a different name.
func (p Predicate) ApplyTo(q *bun.SelectQuery, column ...string) *bun.SelectQuery {
	col := "customer_id"
	if len(column) > 0 && column[0] != "" {
		col = column[0]
	}
	switch p.kind {
	case kindUnrestricted:
		return q
	case kindCustomerEquals:
		return q.Where("? = ?", bun.Ident(col), p.customerID)
	case kindCustomerIn:
		return q.Where("? IN (?)", bun.Ident(col), bun.In(p.CustomerIDs()))
	}
	// DenyAll keeps the query valid but unsatisfiable.
	return q.Where("1 = 0")
}
