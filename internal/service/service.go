package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/clubhub/wifimon/internal/logstore"
	"github.com/clubhub/wifimon/internal/metrics"
	"github.com/clubhub/wifimon/internal/model"
	"github.com/clubhub/wifimon/internal/reconcile"
	"github.com/clubhub/wifimon/internal/roster"
	"github.com/clubhub/wifimon/internal/router"
	"github.com/clubhub/wifimon/internal/scrape"
)

// EventSink receives the summary of every completed or failed cycle. The
// HTTP layer plugs its websocket hub in here.
type EventSink interface {
	Publish(model.CycleSummary)
}

// Monitor runs the fetch-parse-reconcile-log pipeline for one cycle at a
// time. Cycles are strictly sequential; the only state shared with the HTTP
// collaborator is the roster store and the last cycle summary.
type Monitor struct {
	source     router.ClientTableSource
	parser     *scrape.Parser
	roster     *roster.Store
	reconciler *reconcile.Reconciler
	store      *logstore.Store
	events     EventSink
	logger     *slog.Logger

	mu      sync.RWMutex
	last    model.CycleSummary
	hasLast bool
}

func New(source router.ClientTableSource, parser *scrape.Parser, rosterStore *roster.Store, reconciler *reconcile.Reconciler, store *logstore.Store, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		source:     source,
		parser:     parser,
		roster:     rosterStore,
		reconciler: reconciler,
		store:      store,
		logger:     logger,
	}
}

// SetEventSink attaches a cycle-summary subscriber. Must be called before
// the loop starts.
func (m *Monitor) SetEventSink(sink EventSink) {
	m.events = sink
}

// LastSummary returns the most recent cycle summary, if any cycle ran yet.
func (m *Monitor) LastSummary() (model.CycleSummary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.hasLast
}

// IsFatal reports whether a cycle error must stop the monitoring loop.
// Only the inability to persist results qualifies.
func (m *Monitor) IsFatal(err error) bool {
	return logstore.IsStorageError(err)
}

// RunCycle performs one complete cycle. Per-cycle errors are returned to
// the scheduler, which logs and waits for the next slot; the schedule never
// drifts on failure because wake times derive from wall clock.
func (m *Monitor) RunCycle(ctx context.Context) error {
	started := time.Now()
	timestamp := started.UTC().Truncate(time.Second)

	if _, err := m.roster.Reload(); err != nil {
		m.logger.Warn("roster reload failed, keeping previous roster", "err", err)
	}

	page, err := m.source.FetchTable(ctx)
	if err != nil {
		return m.fail(timestamp, err)
	}

	rows, err := m.parser.Parse(page)
	if err != nil {
		return m.fail(timestamp, err)
	}

	result := m.reconciler.Reconcile(rows, m.roster, timestamp)
	members := m.roster.Members()
	observations := memberObservations(timestamp, members, result.Observations)

	if err := m.store.Append(observations); err != nil {
		return m.fail(timestamp, err)
	}
	if err := m.store.AppendUnknown(result.Unknown); err != nil {
		return m.fail(timestamp, err)
	}
	if err := m.store.AppendSnapshot(result.Snapshot); err != nil {
		return m.fail(timestamp, err)
	}

	connected := 0
	for _, obs := range observations {
		if obs.Connected {
			connected++
		}
	}

	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(time.Since(started).Seconds())
	metrics.MembersConnected.Set(float64(connected))
	metrics.UnknownDevices.Set(float64(len(result.Unknown)))
	metrics.RosterSize.Set(float64(len(members)))

	summary := model.CycleSummary{
		Timestamp:    timestamp,
		TotalClients: len(result.Snapshot.Rows),
		KnownOnline:  connected,
		Unknown:      len(result.Unknown),
	}
	m.publish(summary)

	m.logger.Info("cycle complete",
		"members", len(members),
		"connected", connected,
		"unknown", len(result.Unknown),
		"clients", len(result.Snapshot.Rows),
	)
	return nil
}

func (m *Monitor) fail(timestamp time.Time, err error) error {
	metrics.CycleFailures.WithLabelValues(errorReason(err)).Inc()
	m.publish(model.CycleSummary{Timestamp: timestamp, Error: err.Error()})
	return err
}

func (m *Monitor) publish(summary model.CycleSummary) {
	m.mu.Lock()
	m.last = summary
	m.hasLast = true
	m.mu.Unlock()
	if m.events != nil {
		m.events.Publish(summary)
	}
}

// memberObservations expands the reconciled table hits into one 0/1 row per
// roster member, the shape the connection log's downstream plots consume.
func memberObservations(timestamp time.Time, members []model.Member, hits []model.Observation) []model.Observation {
	byMAC := make(map[string]model.Observation, len(hits))
	for _, hit := range hits {
		byMAC[hit.MAC] = hit
	}
	observations := make([]model.Observation, 0, len(members))
	for _, member := range members {
		hit, seen := byMAC[member.MAC]
		observations = append(observations, model.Observation{
			Timestamp: timestamp,
			MAC:       member.MAC,
			Connected: seen && hit.Connected,
			Hostname:  hit.Hostname,
		})
	}
	return observations
}

func errorReason(err error) string {
	var authErr *router.AuthError
	var netErr *router.NetworkError
	switch {
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &netErr):
		return "network"
	case errors.Is(err, scrape.ErrTableNotFound):
		return "parse"
	case logstore.IsStorageError(err):
		return "storage"
	default:
		return "other"
	}
}
