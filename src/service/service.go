package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mosaicnetworks/rollcall/src/common"
	"github.com/mosaicnetworks/rollcall/src/epoch"
	"github.com/mosaicnetworks/rollcall/src/peers"
	"github.com/mosaicnetworks/rollcall/src/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// SnapshotProvider returns the latest roster snapshot, nil if there is none
// yet. registry.Tracker implements it.
type SnapshotProvider interface {
	Snapshot() *epoch.Snapshot
}

// Stats summarises a snapshot.
type Stats struct {
	Epoch         uint64 `json:"epoch"`
	State         string `json:"state"`
	Hash          string `json:"hash"`
	Peers         int    `json:"peers"`
	ActivePeers   int    `json:"active_peers"`
	NextPeers     int    `json:"next_peers"`
	Threshold     int    `json:"threshold"`
	PeerGroupID   string `json:"peer_group_id"`
	NextGroupID   string `json:"next_peer_group_id"`
	NextSetLocked bool   `json:"next_set_locked"`
}

// Service exposes the roster over HTTP. It only reads snapshots; refreshing
// them is the provider's business.
type Service struct {
	sync.Mutex

	bindAddress string
	provider    SnapshotProvider
	store       store.Store
	router      chi.Router
	server      *http.Server
	logger      *logrus.Entry
}

// NewService creates a Service. The store may be nil, in which case
// /snapshot/{epoch} is not served.
func NewService(bindAddress string, provider SnapshotProvider, st store.Store, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		provider:    provider,
		store:       st,
		router:      chi.NewRouter(),
		logger:      logger,
	}

	service.registerHandlers()

	service.server = &http.Server{
		Addr:    bindAddress,
		Handler: service.router,
	}

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering rollcall API handlers")

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/stats", s.makeHandler(s.GetStats))
	s.router.Get("/peers", s.makeHandler(s.GetPeers))
	s.router.Get("/peers/next", s.makeHandler(s.GetNextPeers))
	s.router.Get("/leader", s.makeHandler(s.GetLeader))
	s.router.Get("/statuses", s.makeHandler(s.GetStatuses))
	if s.store != nil {
		s.router.Get("/snapshot/{epoch}", s.makeHandler(s.GetSnapshot))
	}
	s.router.Handle("/metrics", promhttp.Handler())
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request, *epoch.Snapshot)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		snap := s.provider.Snapshot()
		if snap == nil {
			http.Error(w, "no roster snapshot yet", http.StatusServiceUnavailable)
			return
		}

		fn(w, r, snap)
	}
}

// Handler returns the handler serving the API.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Serve calls ListenAndServe. This is a blocking call which returns nil after
// Shutdown.
func (s *Service) Serve() error {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving rollcall API")

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	if err != nil {
		s.logger.Error(err)
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request, snap *epoch.Snapshot) {
	stats := Stats{
		Epoch:         snap.Epoch,
		State:         snap.State.String(),
		Hash:          strconv.FormatUint(snap.Hash(), 16),
		Peers:         snap.Current.Len(),
		ActivePeers:   snap.Current.ActivePeers().Len(),
		NextPeers:     snap.Next.Len(),
		Threshold:     snap.Current.ActivePeers().Threshold(),
		PeerGroupID:   strconv.FormatUint(snap.Current.PeerGroupID(), 16),
		NextGroupID:   strconv.FormatUint(snap.Next.PeerGroupID(), 16),
		NextSetLocked: snap.State.NextSetLocked(),
	}

	writeJSON(w, stats)
}

// GetPeers ...
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request, snap *epoch.Snapshot) {
	returnPeerSet(w, r, snap.Current)
}

// GetNextPeers ...
func (s *Service) GetNextPeers(w http.ResponseWriter, r *http.Request, snap *epoch.Snapshot) {
	returnPeerSet(w, r, snap.Next)
}

// GetLeader selects the leader of the current active peers for the hash key
// given in the "key" query parameter. With hex=true the key is hex-decoded.
func (s *Service) GetLeader(w http.ResponseWriter, r *http.Request, snap *epoch.Snapshot) {
	param := r.URL.Query().Get("key")
	key := []byte(param)

	if r.URL.Query().Get("hex") == "true" {
		var err error
		key, err = common.DecodeFromString(param)
		if err != nil {
			s.logger.WithError(err).Errorf("Parsing key parameter %s", param)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	leader, err := snap.Current.ActivePeers().LeaderForActivePeers(key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, leader)
}

// GetStatuses returns the status of every peer keyed by key hash.
func (s *Service) GetStatuses(w http.ResponseWriter, r *http.Request, snap *epoch.Snapshot) {
	res := make(map[string]string)
	for k, status := range snap.Statuses() {
		res[strconv.FormatUint(k, 10)] = status.String()
	}

	writeJSON(w, res)
}

// GetSnapshot returns a stored snapshot as canonical JSON.
func (s *Service) GetSnapshot(w http.ResponseWriter, r *http.Request, _ *epoch.Snapshot) {
	param := chi.URLParam(r, "epoch")

	e, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing epoch parameter %s", param)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stored, err := s.store.GetSnapshot(e)
	if err != nil {
		status := http.StatusInternalServerError
		if common.IsStore(err, common.KeyNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	data, err := stored.Marshal()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func returnPeerSet(w http.ResponseWriter, r *http.Request, peerSet *peers.PeerSet) {
	writeJSON(w, peerSet.Peers)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
