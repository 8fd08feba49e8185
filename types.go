package ipbauth

import (
	"context"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Credentials is the username/password pair submitted to the host login form
type Credentials struct {
	Username string
	Password string
}

// HostUser is the host owned user record updated during profile sync
type HostUser interface {
	GetUsername() string
	SetEmail(email string)
	SetRealName(name string)
	SetEmailConfirmed(confirmed bool)
}

// HostUserStore handles group membership and persistence for host users
type HostUserStore interface {
	EffectiveGroups(ctx context.Context, user HostUser) ([]string, error)
	AddToGroup(ctx context.Context, user HostUser, group string) error
	RemoveFromGroup(ctx context.Context, user HostUser, group string) error
	Save(ctx context.Context, user HostUser) error
}

// ExternalIdentityProvider is what the host composition root wires into its
// login flow: Authenticate on credential submission and OnLoginCompleted once
// the host session has been established.
type ExternalIdentityProvider interface {
	Authenticate(ctx context.Context, creds Credentials) Result
	OnLoginCompleted(ctx context.Context, user HostUser) error
}

// UsernameNormalizer maps a submitted username to the host canonical form
type UsernameNormalizer interface {
	ResolveCanonicalUsername(ctx context.Context, username string) string
}

// ExistenceChecker reports whether a username is taken in the forum
type ExistenceChecker interface {
	UserExists(ctx context.Context, username string) bool
}
