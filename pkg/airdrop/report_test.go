package airdrop

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildReportAndRoundTrip(t *testing.T) {
	records := []ServiceRecord{
		{ServiceID: "aabbccddeeff", Hostname: "host1.local.", Address: net.ParseIP("fe80::1"), Port: 8770, Flags: FlagSupportsDiscover, Name: "Jane's MacBook"},
		{ServiceID: "112233445566", Hostname: "host2.local.", Address: net.ParseIP("fe80::2"), Port: 8771},
	}

	report := BuildReport(records)
	require.Len(t, report.Entries, 2)
	require.True(t, report.Entries[0].Discoverable)
	require.False(t, report.Entries[1].Discoverable)

	dir := t.TempDir()
	require.NoError(t, WriteReport(dir, report))

	loaded, err := ReadReport(dir)
	require.NoError(t, err)
	require.Equal(t, report.Entries, loaded.Entries)
}

func TestWriteReportProducesBareArray(t *testing.T) {
	report := BuildReport([]ServiceRecord{
		{ServiceID: "aabbccddeeff", Hostname: "host1.local.", Address: net.ParseIP("fe80::1"), Port: 8770},
	})

	dir := t.TempDir()
	require.NoError(t, WriteReport(dir, report))

	data, err := os.ReadFile(filepath.Join(dir, reportFileName))
	require.NoError(t, err)

	var entries []ReportEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Equal(t, report.Entries, entries)
}

func TestReportStale(t *testing.T) {
	fresh := &Report{GeneratedAt: time.Now()}
	require.False(t, fresh.Stale())

	old := &Report{GeneratedAt: time.Now().Add(-2 * time.Minute)}
	require.True(t, old.Stale())
}

func TestReadReportMissingFile(t *testing.T) {
	_, err := ReadReport(t.TempDir())
	require.Error(t, err)
}
