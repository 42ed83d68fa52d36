package stats

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	assert.NotNil(t, su, "expected StatsUpdater to be non-nil")
	assert.NotNil(t, su.updateChan, "expected updateChan to be initialized")

	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
	assert.Equal(t, "GET /debug/vars", pattern, "expected handler to be registered for GET method on /debug/vars")

	// expvar names are process-global, so counter behavior shares this updater
	for _, name := range []string{"ConnectedClients", "ActiveRooms", "MessagesSent", "DroppedClients"} {
		su.RegisterMetric(name)
		assert.NotNil(t, su.vars.Get(name), "expected counter %s to be published", name)
	}

	su.Run()
	su.Incr("MessagesSent")
	su.Incr("MessagesSent")
	su.Incr("ConnectedClients")
	su.Decr("ConnectedClients")

	assert.Eventually(t, func() bool {
		return su.vars.Get("MessagesSent").String() == "2" &&
			su.vars.Get("ConnectedClients").String() == "0"
	}, time.Second, 10*time.Millisecond, "expected counter updates to be applied")

	su.Stop()
}
