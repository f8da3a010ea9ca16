package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordsBuildAndRefresh(t *testing.T) {
	c := New()

	c.ObserveBuild(25*time.Millisecond, 12, 30)
	c.RecordRefresh(ResultSuccess)
	c.RecordRefresh(ResultSuccess)
	c.RecordRefresh(ResultError)

	assert.Equal(t, 12.0, testutil.ToFloat64(c.graphNodes))
	assert.Equal(t, 30.0, testutil.ToFloat64(c.graphEdges))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.refreshes.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.refreshes.WithLabelValues(ResultError)))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := New()
	b := New()

	a.RecordRefresh(ResultSuccess)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.refreshes.WithLabelValues(ResultSuccess)))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.ObserveBuild(time.Millisecond, 3, 2)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "linkgraph_graph_nodes 3"))
	assert.True(t, strings.Contains(body, "linkgraph_graph_build_seconds_count 1"))
}
