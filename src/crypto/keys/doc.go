// Package keys manages validator wallet keys.
//
// Every validator owns a secp256k1 key-pair. The registry publishes the
// compressed public key, from which peers derive the validator's PeerID. The
// private key stays in the validator's data directory as a raw hex dump.
package keys
