package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(snapshotsCapturedTotal, snapshotsRestoredTotal, snapshotsExpiredTotal) }

var snapshotsCapturedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "continuity_snapshots_captured_total",
		Help: "Continuity snapshots written, labeled by kind.",
	},
	[]string{"kind"},
)

var snapshotsRestoredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "continuity_snapshots_restored_total",
		Help: "Continuity snapshots successfully restored, labeled by kind.",
	},
	[]string{"kind"},
)

var snapshotsExpiredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "continuity_snapshots_expired_total",
		Help: "Snapshots discarded on restore because they were stale or unreadable.",
	},
	[]string{"kind"},
)

func IncSnapshotCaptured(kind string) { snapshotsCapturedTotal.WithLabelValues(norm(kind)).Inc() }
func IncSnapshotRestored(kind string) { snapshotsRestoredTotal.WithLabelValues(norm(kind)).Inc() }
func IncSnapshotExpired(kind string)  { snapshotsExpiredTotal.WithLabelValues(norm(kind)).Inc() }
