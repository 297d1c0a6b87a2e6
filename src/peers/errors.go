package peers

import (
	"errors"
	"fmt"
	"strings"
)

// PeerSetErrType ...
type PeerSetErrType uint32

const (
	// NotFound means no member matches the requested address or id
	NotFound PeerSetErrType = iota
	// EmptySet means the operation needs at least one member
	EmptySet
	// InvalidRealmZero means a member carries the zero realm id
	InvalidRealmZero
)

// PeerSetErr is returned by PeerSet queries.
type PeerSetErr struct {
	op      string
	errType PeerSetErrType
	key     string
	known   []string
}

func newNotFoundErr(op, key string, known []string) PeerSetErr {
	return PeerSetErr{
		op:      op,
		errType: NotFound,
		key:     key,
		known:   known,
	}
}

// Type returns the kind of the error.
func (e PeerSetErr) Type() PeerSetErrType {
	return e.errType
}

// Known returns the addresses of the set the query ran against. It is only
// populated for NotFound.
func (e PeerSetErr) Known() []string {
	return e.known
}

// Error implements the error interface
func (e PeerSetErr) Error() string {
	switch e.errType {
	case NotFound:
		return fmt.Sprintf("%s: %s not found, known addresses: [%s]",
			e.op, e.key, strings.Join(e.known, ", "))
	case EmptySet:
		return fmt.Sprintf("%s: empty peer set", e.op)
	case InvalidRealmZero:
		return fmt.Sprintf("%s: realm id of %s is zero", e.op, e.key)
	}
	return fmt.Sprintf("%s: %s", e.op, e.key)
}

// IsPeerSetErr checks that err is, or wraps, a PeerSetErr of type t.
func IsPeerSetErr(err error, t PeerSetErrType) bool {
	var psErr PeerSetErr
	return errors.As(err, &psErr) && psErr.errType == t
}
