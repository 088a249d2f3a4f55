package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrUserIdMissing        = errors.New("user id is missing")
	ErrMailcowNotConfigured = errors.New("mailcow api key not configured")

	// domain errors
	ErrDomainNotFound     = errors.New("domain not found")
	ErrDomainExists       = errors.New("domain already exists")
	ErrDomainLimitReached = errors.New("domain limit reached")
	ErrInvalidDomainName  = errors.New("invalid domain name")

	// mailbox errors
	ErrMailboxNotFound     = errors.New("mailbox not found")
	ErrInvalidEmailAddress = errors.New("invalid email address")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters")

	// alias errors
	ErrAliasNotFound      = errors.New("alias not found")
	ErrInvalidDestination = errors.New("invalid destination address")
)
