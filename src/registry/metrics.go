package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refreshes counts Tracker refreshes by result: "changed", "unchanged" or
// "error".
var Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rollcall",
	Name:      "refreshes_total",
	Help:      "Total registry refreshes by result.",
}, []string{"result"})

// CurrentEpoch is the epoch of the latest snapshot.
var CurrentEpoch = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "rollcall",
	Name:      "epoch",
	Help:      "Epoch of the latest roster snapshot.",
})

// EpochState is the registry code of the latest snapshot's state.
var EpochState = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "rollcall",
	Name:      "epoch_state",
	Help:      "Network epoch state code of the latest roster snapshot.",
})

// RosterPeers counts peers in the latest snapshot by roster: "current",
// "active" or "next".
var RosterPeers = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "rollcall",
	Name:      "roster_peers",
	Help:      "Number of peers in the latest roster snapshot.",
}, []string{"roster"})
