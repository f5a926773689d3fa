package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(actionsDeferredTotal, actionsClaimedTotal) }

var actionsDeferredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deferred_actions_stored_total",
		Help: "User intents stored for replay after a quota hit, labeled by kind.",
	},
	[]string{"kind"},
)

var actionsClaimedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deferred_actions_claimed_total",
		Help: "Deferred actions handed back for replay once the limit lifted.",
	},
	[]string{"kind"},
)

func IncActionDeferred(kind string) { actionsDeferredTotal.WithLabelValues(norm(kind)).Inc() }
func IncActionClaimed(kind string)  { actionsClaimedTotal.WithLabelValues(norm(kind)).Inc() }
