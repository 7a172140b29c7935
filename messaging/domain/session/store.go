package session

import (
	"context"
	"time"
)

// Store is the TTL key/value contract conversation state lives in.
// A missing or expired key is reported as found == false with a nil error.
// Values are always overwritten or deleted whole.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys ...string) error
}

// Namespace separates the state of the different flows of a single sender.
type Namespace string

const (
	NamespaceRole     Namespace = "selected_role"
	NamespaceTenant   Namespace = "service_request_state"
	NamespaceFacility Namespace = "facility_manager_state"
	NamespaceOwner    Namespace = "landlord_state"
	NamespaceDefault  Namespace = "default_state"
)

// FlowNamespaces returns every task-flow namespace (role selection excluded).
func FlowNamespaces() []Namespace {
	return []Namespace{NamespaceTenant, NamespaceFacility, NamespaceOwner, NamespaceDefault}
}

// Key builds "<namespace>_<sender>". sender must already be normalized.
func Key(ns Namespace, sender string) string {
	return string(ns) + "_" + sender
}

const (
	DefaultFlowTTL = 5 * time.Minute
	DefaultRoleTTL = 24 * time.Hour
)
