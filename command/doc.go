// Package command exposes go-command compatible handlers for the engine's
// mutations: custom role editing, user permission overrides, customer
// assignment replacement, and template seeding. Commands are wired by the
// service layer and can be invoked by any transport.
package command
