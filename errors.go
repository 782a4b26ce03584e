package goBank

import "errors"

var (
	// ErrInvalidFormat is returned for malformed identities, passwords or amounts.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrUsernameTaken is returned by Register when the identity already exists.
	ErrUsernameTaken = errors.New("username taken")
	// ErrInvalidCredentials is returned by Login for any credential mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound accompanies ErrInvalidCredentials when the identity is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword accompanies ErrInvalidCredentials when the password does not match.
	ErrWrongPassword = errors.New("wrong password")
	// ErrUnauthenticated is returned for missing, malformed, forged or expired tokens.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrOverflow is returned when an amount or resulting balance exceeds the ceiling.
	ErrOverflow = errors.New("amount overflow")
	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrLoginRateLimited is returned when the failed-login budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRegistrationRateLimited is returned when a client IP registers too often.
	ErrRegistrationRateLimited = errors.New("registration rate limited")
	// ErrInternal is returned for storage or infrastructure faults. Details are logged, not returned.
	ErrInternal = errors.New("internal error")
	// ErrEngineNotReady is returned when an Engine method is called on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
)
