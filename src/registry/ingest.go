package registry

import (
	"fmt"

	"github.com/mosaicnetworks/rollcall/src/peers"
	"github.com/sirupsen/logrus"
)

// Ingest builds a canonically ordered PeerSet from registry descriptors. The
// first descriptor with a malformed wallet key aborts the whole ingestion and
// no set is returned.
func Ingest(descs []peers.RawDescriptor, key peers.SortKey, logger *logrus.Entry) (*peers.PeerSet, error) {
	res := make([]*peers.Peer, 0, len(descs))

	for _, d := range descs {
		p, err := peers.NewPeerFromDescriptor(d, logger)
		if err != nil {
			return nil, fmt.Errorf("ingesting validator %d: %w", d.Index, err)
		}
		res = append(res, p)
	}

	peerSet, err := peers.NewCanonicalPeerSet(res, key)
	if err != nil {
		return nil, err
	}

	if logger != nil {
		peerSet = peerSet.WithLogger(logger)
	}

	return peerSet, nil
}
