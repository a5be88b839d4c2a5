package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSignIn_DefaultsToLocal(t *testing.T) {
	before := testutil.ToFloat64(signIns.WithLabelValues("local", "error"))
	SignIn("", errors.New("boom"))
	require.Equal(t, before+1, testutil.ToFloat64(signIns.WithLabelValues("local", "error")))
}

func TestUpstream_NetworkError(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequests.WithLabelValues("api", "network_error"))
	Upstream("api", 0)
	require.Equal(t, before+1, testutil.ToFloat64(upstreamRequests.WithLabelValues("api", "network_error")))
}
