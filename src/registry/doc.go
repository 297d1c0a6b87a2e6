// Package registry turns what the on-chain validator registry publishes into
// roster snapshots.
//
// A Source stands for the registry client: it reports the current epoch, its
// lifecycle state and the raw validator descriptors of the current and next
// rosters. Ingest converts descriptors into a canonically ordered PeerSet,
// aborting on the first malformed identity. A Tracker polls a Source, builds a
// fresh epoch.Snapshot on every change, persists it and hands it out. Nothing
// downstream ever sees a snapshot being modified.
//
// JSONSource reads the registry from files, which is how the rollcall command
// and the tests feed the Tracker:
//
//	[datadir]/epoch.json            {"epoch": 12, "state": 0}
//	[datadir]/validators.json       current roster descriptors
//	[datadir]/validators.next.json  locked next roster descriptors (optional)
package registry
