// Package query exposes go-command compatible read handlers: role and
// template listings, effective permission resolution for a user, and the
// materialized customer visibility set behind the scope predicate.
package query
