package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.BlueprintsCreated.Inc()
	m.TransitionsTotal.WithLabelValues("food-order", "start-prep", OutcomeRejected, "ACTION_DISABLED").Inc()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "flowgate_blueprints_created_total 1")
	assert.Contains(t, body, `flowgate_transitions_total{action="start-prep",blueprint="food-order",outcome="rejected",reason="ACTION_DISABLED"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.BlueprintsCreated.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.BlueprintsCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.BlueprintsCreated))

	n, err := testutil.GatherAndCount(a.Registry(), "flowgate_blueprints_created_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
