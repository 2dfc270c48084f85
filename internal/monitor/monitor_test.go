package monitor

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Counters(t *testing.T) {
	m := NewMonitor("liar_game_test")

	m.ObserveAction("Vote", RESULT_OK, 3*time.Millisecond)
	m.ObserveAction("Vote", RESULT_OK, time.Millisecond)
	m.ObserveAction("Vote", RESULT_REJECTED, time.Millisecond)
	m.IncTxnConflicts()
	m.IncAgentAction("Describe")
	m.AddRoomsCollected(2)

	metrics := m.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ActionsTotal.WithLabelValues("Vote", RESULT_OK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ActionsTotal.WithLabelValues("Vote", RESULT_REJECTED)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TxnConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AgentActions.WithLabelValues("Describe")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RoomsCollected))
}

func TestMonitor_Gauges(t *testing.T) {
	m := NewMonitor("liar_game_test")

	m.IncOnlinePlayers()
	m.IncOnlinePlayers()
	m.DecOnlinePlayers()
	m.SetActiveRooms(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().OnlinePlayers))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Metrics().ActiveRooms))
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("liar_game_test")
	m.SetActiveRooms(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "liar_game_test_active_rooms 1")
}
