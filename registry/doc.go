// Package registry contains the default persistence for role templates,
// custom roles, and permission overrides. Default structs compose
// go-repository-bun repositories but can be replaced by the host application
// via dependency injection. All replace-style edits run in one transaction so
// concurrent permission resolution never observes a role with half its
// overrides.
package registry
