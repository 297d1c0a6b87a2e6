package registry

import (
	"context"

	"github.com/mosaicnetworks/rollcall/src/epoch"
	"github.com/mosaicnetworks/rollcall/src/peers"
)

// Source is the view of the validator registry this package depends on.
type Source interface {
	// Epoch returns the current epoch number and lifecycle state.
	Epoch(ctx context.Context) (uint64, epoch.NetworkEpochState, error)

	// CurrentValidators returns the descriptors of the current roster.
	CurrentValidators(ctx context.Context) ([]peers.RawDescriptor, error)

	// NextValidators returns the descriptors of the next roster. It may be
	// empty when no next roster has been proposed.
	NextValidators(ctx context.Context) ([]peers.RawDescriptor, error)
}
