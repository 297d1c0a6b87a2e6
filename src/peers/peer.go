package peers

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

// RealmID identifies a logical partition of the network. Zero is never a
// valid realm.
type RealmID uint64

// RawDescriptor is a validator entry as published by the on-chain registry.
type RawDescriptor struct {
	Index           uint64            `json:"index"`
	WalletPublicKey hexutil.Bytes     `json:"wallet_public_key"`
	SocketAddr      string            `json:"socket_addr"`
	IsKicked        bool              `json:"is_kicked"`
	StakerAddress   ethcommon.Address `json:"staker_address"`
	KeyHash         uint64            `json:"key_hash"`
	Version         string            `json:"version"`
	RealmID         uint64            `json:"realm_id"`
}

// Peer is a member of the validator roster.
type Peer struct {
	NetAddr       string            `json:"socket_address" codec:"socket_address"`
	ID            PeerID            `json:"peer_id" codec:"peer_id"`
	StakerAddress ethcommon.Address `json:"staker_address" codec:"staker_address"`
	KeyHash       uint64            `json:"key_hash" codec:"key_hash"`
	Kicked        bool              `json:"kicked" codec:"kicked"`
	Version       *semver.Version   `json:"version" codec:"version"`
	RealmID       RealmID           `json:"realm_id" codec:"realm_id"`
}

// NewPeer creates a Peer from already-validated values. The version is left
// at 0.0.0.
func NewPeer(netAddr string, id PeerID, keyHash uint64, realmID RealmID) *Peer {
	return &Peer{
		NetAddr: netAddr,
		ID:      id,
		KeyHash: keyHash,
		Version: zeroVersion(),
		RealmID: realmID,
	}
}

// NewPeerFromDescriptor builds a Peer from a registry descriptor.
//
// The identity is derived from the wallet public key. An empty key falls back
// to an identity encoded from index+1, and an all-zero key yields NotAssigned;
// both are logged. A key that is present but does not parse, or an empty key
// at the last possible index, is an *IdentityError and the caller must abort
// the whole ingestion.
//
// The version is best-effort: anything that is not semver becomes 0.0.0.
func NewPeerFromDescriptor(desc RawDescriptor, logger *logrus.Entry) (*Peer, error) {
	if logger == nil {
		logger = defaultLogger()
	}

	id, err := identityFromDescriptor(desc, logger)
	if err != nil {
		return nil, err
	}

	version, err := semver.NewVersion(desc.Version)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"addr":    desc.SocketAddr,
			"version": desc.Version,
			"error":   err,
		}).Debug("Unparsable peer version, using 0.0.0")
		version = zeroVersion()
	}

	return &Peer{
		NetAddr:       desc.SocketAddr,
		ID:            id,
		StakerAddress: desc.StakerAddress,
		KeyHash:       desc.KeyHash,
		Kicked:        desc.IsKicked,
		Version:       version,
		RealmID:       RealmID(desc.RealmID),
	}, nil
}

func identityFromDescriptor(desc RawDescriptor, logger *logrus.Entry) (PeerID, error) {
	key := []byte(desc.WalletPublicKey)

	if len(key) == 0 {
		id, err := indexIdentity(desc.Index)
		if err != nil {
			return NotAssigned, &IdentityError{
				Index:   desc.Index,
				Addr:    desc.SocketAddr,
				Wrapped: err,
			}
		}
		logger.WithFields(logrus.Fields{
			"index": desc.Index,
			"addr":  desc.SocketAddr,
		}).Warn("Registry descriptor has no wallet public key, deriving peer id from index")
		return id, nil
	}

	if allZero(key) {
		logger.WithFields(logrus.Fields{
			"index": desc.Index,
			"addr":  desc.SocketAddr,
		}).Debug("Wallet public key is zeroed, peer id not assigned")
		return NotAssigned, nil
	}

	id, err := ParsePeerID(key)
	if err != nil {
		return NotAssigned, &IdentityError{
			Index:   desc.Index,
			Addr:    desc.SocketAddr,
			KeyLen:  len(key),
			Wrapped: err,
		}
	}

	return id, nil
}

// UnknownPeer returns the sentinel used where no peer is known.
func UnknownPeer() *Peer {
	return &Peer{
		ID:      NotAssigned,
		Version: zeroVersion(),
	}
}

// SocketAddress returns the transport endpoint of the peer. It lets a Peer be
// used as a NodeDescriptor.
func (p *Peer) SocketAddress() string {
	return p.NetAddr
}

// DebugAddress returns "<addr> [<first 4 chars of id>..]", for logs only.
func (p *Peer) DebugAddress() string {
	return fmt.Sprintf("%s [%s..]", p.NetAddr, p.ID.String()[:4])
}

// Equal compares identity fields only: key hash, address, id and kicked.
// Version and realm are ignored.
func (p *Peer) Equal(other *Peer) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.KeyHash == other.KeyHash &&
		p.NetAddr == other.NetAddr &&
		p.ID == other.ID &&
		p.Kicked == other.Kicked
}

// ExcludePeer is used to exclude a single peer from a list of peers. It
// returns the index of the excluded peer, or -1.
func ExcludePeer(peers []*Peer, netAddr string) (int, []*Peer) {
	index := -1
	otherPeers := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if p.NetAddr != netAddr {
			otherPeers = append(otherPeers, p)
		} else if index == -1 {
			index = i
		}
	}
	return index, otherPeers
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func zeroVersion() *semver.Version {
	return semver.New(0, 0, 0, "", "")
}

func defaultLogger() *logrus.Entry {
	return logrus.StandardLogger().WithField("prefix", "peers")
}
