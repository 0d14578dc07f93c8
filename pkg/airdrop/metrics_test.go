package airdrop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersEverything(t *testing.T) {
	m := NewMetrics()
	require.NotNil(t, m.Registry)

	m.PeersDiscovered.Inc()
	m.DiscoverOutcomes.WithLabelValues("ok").Inc()
	m.AskOutcomes.WithLabelValues("accepted").Inc()
	m.UploadOutcomes.WithLabelValues("ok").Inc()
	m.BytesTransferred.Add(1024)
	m.TransferDuration.Observe(1.5)

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
