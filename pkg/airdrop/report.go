package airdrop

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// reportFileName is where the sender CLI persists its last discovery
// snapshot; ReadReport loads it back.
const reportFileName = "discover.last.json"

// reportStaleAfter is how old a persisted report can be before callers
// should treat it as untrustworthy and re-scan instead.
const reportStaleAfter = 60 * time.Second

// ReportEntry is one peer's discovery-table row, serialized to disk. The
// file on disk is a bare JSON array of these, matching the reference
// implementation's json.dump(self.discover, f).
type ReportEntry struct {
	Name         string `json:"name"`
	Hostname     string `json:"hostname"`
	Address      string `json:"address"`
	Port         uint16 `json:"port"`
	ServiceID    string `json:"id"`
	Flags        uint32 `json:"flags"`
	Discoverable bool   `json:"discoverable"`
}

// Report is a discovery snapshot. GeneratedAt is populated from the
// report file's mtime on read (or time.Now on a freshly built report);
// it is never itself serialized, so the on-disk shape stays a bare array.
type Report struct {
	GeneratedAt time.Time
	Entries     []ReportEntry
}

// Stale reports whether the snapshot is older than reportStaleAfter.
func (r *Report) Stale() bool {
	return time.Since(r.GeneratedAt) > reportStaleAfter
}

// BuildReport converts a discovery table snapshot into a Report.
func BuildReport(records []ServiceRecord) *Report {
	entries := make([]ReportEntry, len(records))
	for i, r := range records {
		entries[i] = ReportEntry{
			Name:         r.Name,
			Hostname:     r.Hostname,
			Address:      r.Address.String(),
			Port:         r.Port,
			ServiceID:    r.ServiceID,
			Flags:        r.Flags,
			Discoverable: r.Discoverable(),
		}
	}
	return &Report{GeneratedAt: time.Now(), Entries: entries}
}

// WriteReport persists report's entries to dir/discover.last.json as a
// bare JSON array, atomically (write to a temp file, then rename), so a
// reader never observes a partial file.
func WriteReport(dir string, report *Report) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create report dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(report.Entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	dst := filepath.Join(dir, reportFileName)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// ReadReport loads the persisted report from dir/discover.last.json,
// deriving GeneratedAt from the file's modification time.
func ReadReport(dir string) (*Report, error) {
	path := filepath.Join(dir, reportFileName)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat report: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var entries []ReportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	return &Report{GeneratedAt: info.ModTime(), Entries: entries}, nil
}
