package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrTransport             = errors.New("transport failure")
	ErrDecode                = errors.New("payload decode failure")
	ErrPlayerNotFound        = errors.New("player not found")
)

// FetchError is a recoverable failure while fetching one player's matches.
// The poller skips the player and continues with the rest of the roster.
type FetchError struct {
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("fetch: %s: %v", e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("fetch: %v", e.Err)
	case e.Message != "":
		return "fetch: " + e.Message
	default:
		return "fetch failed"
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewPlayerNotFoundError reports that upstream does not know the player.
func NewPlayerNotFoundError(player string) *FetchError {
	return &FetchError{Message: "player " + player, Err: ErrPlayerNotFound}
}

// UnrecoverableFetchError aborts the whole poll cycle.
type UnrecoverableFetchError struct {
	Message string
	Body    string
	Err     error
}

func (e *UnrecoverableFetchError) Error() string {
	msg := "unrecoverable fetch: " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnrecoverableFetchError) Unwrap() error {
	return e.Err
}

// StorageIOError wraps any database failure of the match store. Connection
// marks failures that a later retry can clear.
type StorageIOError struct {
	Op         string
	Connection bool
	Err        error
}

func (e *StorageIOError) Error() string {
	if e.Connection {
		return fmt.Sprintf("storage %s: connection lost: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageIOError) Unwrap() error {
	return e.Err
}

func IsRecoverableFetch(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}

func IsUnrecoverableFetch(err error) bool {
	var target *UnrecoverableFetchError
	return errors.As(err, &target)
}

func IsPlayerNotFound(err error) bool {
	return errors.Is(err, ErrPlayerNotFound)
}

func IsStorageIO(err error) bool {
	var target *StorageIOError
	return errors.As(err, &target)
}

// IsStorageConnection reports a lost or refused database connection. Other
// storage failures (missing schema, constraint violations) need an operator.
func IsStorageConnection(err error) bool {
	var target *StorageIOError
	return errors.As(err, &target) && target.Connection
}
