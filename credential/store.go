package credential

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/MrEthical07/goBank/ledger"
	"github.com/MrEthical07/goBank/money"
	"github.com/MrEthical07/goBank/password"
	"github.com/MrEthical07/goBank/store"
)

var (
	// ErrInvalidFormat is returned for identities or passwords outside the grammar.
	ErrInvalidFormat = errors.New("credential: invalid format")
	// ErrUsernameTaken is returned by Register when the identity exists.
	ErrUsernameTaken = errors.New("credential: username taken")
	// ErrNotFound is returned by Verify for an unknown identity.
	ErrNotFound = errors.New("credential: identity not found")
	// ErrWrongPassword is returned by Verify when the password does not match.
	ErrWrongPassword = errors.New("credential: wrong password")
	// ErrUnavailable wraps storage and hash-decoding faults.
	ErrUnavailable = errors.New("credential: backend unavailable")
)

var identityPattern = regexp.MustCompile(`^[_.\-0-9a-z]{1,127}$`)

// ValidateIdentity reports whether s is an admissible identity.
func ValidateIdentity(s string) error {
	if !identityPattern.MatchString(s) {
		return ErrInvalidFormat
	}
	return nil
}

// ValidatePassword reports whether s is an admissible raw password.
func ValidatePassword(s string) error {
	if !identityPattern.MatchString(s) {
		return ErrInvalidFormat
	}
	return nil
}

// Opener creates the account record. *ledger.Ledger implements it.
type Opener interface {
	Open(ctx context.Context, identity, passwordHash string, initial money.Money) error
}

// Lookup reads account records. Any store.Repository implements it.
type Lookup interface {
	Get(ctx context.Context, identity string) (store.Account, error)
}

// Verified is the outcome of a successful Verify.
type Verified struct {
	Identity string
	// NeedsRehash is set when the stored hash uses weaker parameters than the
	// current hasher configuration.
	NeedsRehash bool
}

// Store registers and verifies credentials. It is safe for concurrent use.
type Store struct {
	hasher *password.Argon2
	lookup Lookup
	opener Opener
}

// NewStore wires a Store. All arguments are required.
func NewStore(hasher *password.Argon2, lookup Lookup, opener Opener) (*Store, error) {
	if hasher == nil {
		return nil, errors.New("credential: hasher is nil")
	}
	if lookup == nil || opener == nil {
		return nil, errors.New("credential: account backend is nil")
	}
	return &Store{hasher: hasher, lookup: lookup, opener: opener}, nil
}

// Register creates identity with rawPassword and an initial balance.
// Exactly one of several concurrent registrations of one identity succeeds;
// the others return ErrUsernameTaken.
func (s *Store) Register(ctx context.Context, identity, rawPassword string, initial money.Money) error {
	if err := ValidateIdentity(identity); err != nil {
		return err
	}
	if err := ValidatePassword(rawPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch err := s.opener.Open(ctx, identity, hash, initial); {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrAlreadyExists):
		return ErrUsernameTaken
	case errors.Is(err, ledger.ErrOverflow):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// Verify checks rawPassword against the stored hash for identity.
func (s *Store) Verify(ctx context.Context, identity, rawPassword string) (Verified, error) {
	if err := ValidateIdentity(identity); err != nil {
		return Verified{}, err
	}
	if err := ValidatePassword(rawPassword); err != nil {
		return Verified{}, err
	}

	acct, err := s.lookup.Get(ctx, identity)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, ledger.ErrNotFound) {
		s.hasher.VerifyDummy(rawPassword)
		return Verified{}, ErrNotFound
	}
	if err != nil {
		return Verified{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ok, err := s.hasher.Verify(rawPassword, acct.PasswordHash)
	if err != nil {
		return Verified{}, fmt.Errorf("%w: stored hash unreadable: %v", ErrUnavailable, err)
	}
	if !ok {
		return Verified{}, ErrWrongPassword
	}

	out := Verified{Identity: identity}
	if upgrade, err := s.hasher.NeedsUpgrade(acct.PasswordHash); err == nil {
		out.NeedsRehash = upgrade
	}
	return out, nil
}
