package main

import "fmt"

// ErrorKind identifies a registry-level failure. Handlers translate a kind
// into the appropriate numeric reply rather than propagating the error
// itself up into the dispatcher loop.
type ErrorKind int

// Kinds used by the Client/Channel registries and the routing plane. These
// mirror the exception names the system was designed around, but we use a
// single sum type rather than distinct error types so handlers can switch on
// one value.
const (
	ErrNone ErrorKind = iota
	ErrNoSuchNick
	ErrNoSuchServer
	ErrNoSuchChannel
	ErrNotOnChannel
	ErrBannedFromChannel
	ErrBadChannelKey
	ErrChanopPrivIsNeeded
	ErrNickAlreadyInUse
	ErrAlreadyRegistered
	ErrUserOnChannel
	ErrInternal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrNoSuchNick:
		return "no such nick"
	case ErrNoSuchServer:
		return "no such server"
	case ErrNoSuchChannel:
		return "no such channel"
	case ErrNotOnChannel:
		return "not on channel"
	case ErrBannedFromChannel:
		return "banned from channel"
	case ErrBadChannelKey:
		return "bad channel key"
	case ErrChanopPrivIsNeeded:
		return "chanop privileges needed"
	case ErrNickAlreadyInUse:
		return "nickname already in use"
	case ErrAlreadyRegistered:
		return "already registered"
	case ErrUserOnChannel:
		return "already on channel"
	case ErrInternal:
		return "internal error"
	default:
		return "unknown error"
	}
}

// RegistryError wraps an ErrorKind with the context a handler needs to build
// a useful numeric reply (the name that was missing, the channel that was
// locked, and so on).
type RegistryError struct {
	Kind   ErrorKind
	Target string
}

func (e *RegistryError) Error() string {
	if e.Target == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Target)
}

func newRegistryError(kind ErrorKind, target string) *RegistryError {
	return &RegistryError{Kind: kind, Target: target}
}

// kindOf extracts the ErrorKind from an error produced by this package,
// returning ErrNone for nil and ErrInternal for anything unrecognized.
func kindOf(err error) ErrorKind {
	if err == nil {
		return ErrNone
	}
	if re, ok := err.(*RegistryError); ok {
		return re.Kind
	}
	return ErrInternal
}
