package auth

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// MetadataKey is the operation metadata key holding a Requirement.
const MetadataKey = "auth"

// Requirement is what an operation demands of the caller.
type Requirement int

const (
	// RequireNone lets anyone call the operation.
	RequireNone Requirement = iota
	// RequireSession demands a valid admin session cookie.
	RequireSession
	// RequireSessionOrAPIKey accepts a session cookie or the API key.
	RequireSessionOrAPIKey
)

// GetRequirement reads the operation's Requirement, defaulting to RequireNone.
func GetRequirement(ctx huma.Context) Requirement {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return RequireNone
	}

	req, ok := op.Metadata[MetadataKey].(Requirement)
	if !ok {
		return RequireNone
	}

	return req
}

// Method records how a caller authenticated.
type Method string

const (
	MethodSession Method = "session"
	MethodAPIKey  Method = "api_key"
)

// Principal is the authenticated caller.
type Principal struct {
	Username string
	Method   Method
}

type principalKey struct{}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)

	return p, ok
}
