package authcore

import "errors"

// Kind groups sentinel errors by how a transport should answer them.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

var (
	// ErrMissingFields is returned when a required request field is empty.
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidEmail is returned for syntactically invalid email addresses.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidRole is returned for roles outside the closed role set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidPassword is returned when a password is rejected by the hasher
	// (for example above the length limit).
	ErrInvalidPassword = errors.New("invalid password")

	// ErrIdentityExists is returned when the username or email is taken.
	ErrIdentityExists = errors.New("user already exists")

	// ErrInvalidCredentials covers both unknown identities and wrong
	// passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for unknown, consumed or malformed refresh
	// tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for expired refresh tokens and expired
	// access credentials.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is returned for access credentials revoked by logout.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrUnauthenticated is returned for missing, malformed or forged access
	// credentials.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when the caller's role does not permit the
	// operation.
	ErrForbidden = errors.New("forbidden")

	// ErrIdentityNotFound is returned by identity lookups.
	ErrIdentityNotFound = errors.New("user not found")

	// ErrInternal wraps storage and hashing failures. The wrapped cause is
	// meant for logs only.
	ErrInternal = errors.New("internal error")
	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrMissingFields, KindValidation},
	{ErrInvalidEmail, KindValidation},
	{ErrInvalidRole, KindValidation},
	{ErrInvalidPassword, KindValidation},
	{ErrIdentityExists, KindConflict},
	{ErrInvalidCredentials, KindAuthentication},
	{ErrInvalidToken, KindAuthentication},
	{ErrTokenExpired, KindAuthentication},
	{ErrTokenRevoked, KindAuthentication},
	{ErrUnauthenticated, KindAuthentication},
	{ErrForbidden, KindAuthorization},
	{ErrIdentityNotFound, KindNotFound},
}

// KindOf classifies err. Unknown errors, ErrInternal and nil-engine errors
// are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
