package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
)

// serverMetrics collects per shard request statistics in prometheus format
type serverMetrics struct {
	set *metrics.Set
}

func newServerMetrics() *serverMetrics {
	return &serverMetrics{set: metrics.NewSet()}
}

// unknownShardLabel is used for requests to shards the server does not host.
// The shard id comes from the client, so it must not become a label value.
const unknownShardLabel = "unknown"

// observe records a finished request. shard is the shard id or unknownShardLabel.
func (m *serverMetrics) observe(shard string, op common.MessageType, code common.ErrorCode, start time.Time) {
	codeLabel := strings.ReplaceAll(code.String(), " ", "_")
	m.set.GetOrCreateCounter(fmt.Sprintf(`medrec_requests_total{shard="%s",op="%s",code="%s"}`, shard, op, codeLabel)).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`medrec_request_duration_seconds{shard="%s",op="%s"}`, shard, op)).UpdateDuration(start)
}

// shardStarted counts the shards by type
func (m *serverMetrics) shardStarted(t common.ServerShardType) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`medrec_shards_started_total{type="%s"}`, t)).Inc()
}

// handler serves the request metrics together with the process metrics
func (m *serverMetrics) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		m.set.WritePrometheus(w)
		metrics.WritePrometheus(w, true)
	})
	return mux
}
