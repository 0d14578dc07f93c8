package airdrop

import (
	"context"
	"log/slog"
	"sync"
)

// resolverPoolSize bounds how many Discover RPCs run concurrently in
// response to mDNS activity, so a flood of advertisements can't spawn
// unbounded goroutines.
const resolverPoolSize = 5

// resolveJobQueueSize bounds the backlog of pending resolutions; once
// full, ServiceAdded drops new jobs with a warning rather than blocking
// the mDNS callback.
const resolveJobQueueSize = 64

// Table is the sender's discovery table: one ServiceRecord per live
// peer, keyed by service id. Access is serialized by a single mutex
// covering append and iterate, per the spec's concurrency model.
type Table struct {
	mu      sync.Mutex
	records map[string]*ServiceRecord
}

// NewTable creates an empty discovery table.
func NewTable() *Table {
	return &Table{records: make(map[string]*ServiceRecord)}
}

// Upsert inserts or replaces the record for its service id.
func (t *Table) Upsert(r *ServiceRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[r.ServiceID] = r
}

// Remove deletes the record for a service id, if present.
func (t *Table) Remove(serviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, serviceID)
}

// Get returns a copy of the record for a service id.
func (t *Table) Get(serviceID string) (ServiceRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[serviceID]
	if !ok {
		return ServiceRecord{}, false
	}
	return *r, true
}

// Snapshot returns a copy of every record currently in the table, in
// mDNS arrival order is not guaranteed (map iteration order).
func (t *Table) Snapshot() []ServiceRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ServiceRecord, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, *r)
	}
	return out
}

// resolveJob is one unit of work for the resolver pool: a freshly
// discovered peer that needs a Discover RPC to learn its display name.
type resolveJob struct {
	record *ServiceRecord
}

// Dispatcher implements Listener. It owns the discovery table and a
// bounded worker pool that performs the Discover RPC for each newly
// discovered peer off the mDNS callback goroutine (spec §9,
// "thread-per-discovery pool" redesigned as a bounded pool).
type Dispatcher struct {
	table    *Table
	identity *Identity
	jobs     chan resolveJob
	metrics  *Metrics

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewDispatcher starts resolverPoolSize worker goroutines that drain the
// job queue and call Discover against each newly seen peer. metrics may
// be nil to disable instrumentation.
func NewDispatcher(ctx context.Context, identity *Identity, table *Table, metrics *Metrics) *Dispatcher {
	ctx, cancel := context.WithCancel(ctx)
	d := &Dispatcher{
		table:    table,
		identity: identity,
		jobs:     make(chan resolveJob, resolveJobQueueSize),
		metrics:  metrics,
		cancel:   cancel,
	}

	for i := 0; i < resolverPoolSize; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	return d
}

// ServiceAdded enqueues a resolution job without blocking; if the queue
// is full, the mDNS record is dropped from resolution (it stays absent
// from the table until re-advertised, since mDNS callbacks must never
// block on I/O).
func (d *Dispatcher) ServiceAdded(record *ServiceRecord) {
	if d.metrics != nil {
		d.metrics.PeersDiscovered.Inc()
	}
	select {
	case d.jobs <- resolveJob{record: record}:
	default:
		slog.Warn("discovery: resolver queue full, dropping peer", "service_id", record.ServiceID)
	}
}

// ServiceRemoved removes a peer from the discovery table.
func (d *Dispatcher) ServiceRemoved(serviceID string) {
	d.table.Remove(serviceID)
}

// Stop cancels all in-flight and pending resolutions and waits for
// workers to exit.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.jobs:
			d.resolve(ctx, job.record)
		}
	}
}

// resolve upserts the peer unconditionally, then — only if the peer's
// advertised flags claim SUPPORTS_DISCOVER — issues a Discover RPC and
// stores whatever the table ends up with: a filled-in name on success,
// or the bare mDNS record (Name == "") on any failure, per spec:
// connection errors, non-200, timeouts, and missing keys are all
// equivalent to "not discoverable". A peer that explicitly opts out of
// SUPPORTS_DISCOVER stays in the table without ever triggering the RPC.
func (d *Dispatcher) resolve(ctx context.Context, record *ServiceRecord) {
	d.table.Upsert(record)

	if !SupportsDiscover(record.Flags, record.FlagsPresent) {
		return
	}

	name, err := DiscoverPeer(ctx, d.identity, record)
	if err != nil {
		slog.Debug("discovery: peer not discoverable", "service_id", record.ServiceID, "error", err)
		return
	}

	updated := *record
	updated.Name = name
	d.table.Upsert(&updated)
}
