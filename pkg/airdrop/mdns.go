package airdrop

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/libp2p/zeroconf/v2"
)

// ServiceType is the DNS-SD service type AirDrop peers advertise under.
const ServiceType = "_airdrop._tcp"

// mdnsDomain is the multicast DNS domain all lookups are scoped to.
const mdnsDomain = "local."

// browseRescanInterval bounds how long a single Browse round runs before
// the browser starts a fresh one. Restarting periodically keeps the
// multicast socket fresh and lets us age out records that stopped
// appearing, since zeroconf only reports additions.
const browseRescanInterval = 30 * time.Second

// recordExpiry is how long a ServiceRecord survives without being
// re-observed before Browse reports it removed.
const recordExpiry = 2 * browseRescanInterval

var serviceIDPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

// Advertiser registers the receiver's AirDrop service over mDNS,
// constrained to a single interface and to IPv6.
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers "<id.ServiceID>._airdrop._tcp.local." on the
// identity's interface, pointing at host:port, with the advertised
// capability flags encoded in the "flags" TXT key.
func Advertise(id *Identity, host net.IP, port uint16) (*Advertiser, error) {
	iface, err := net.InterfaceByName(id.InterfaceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInterfaceUnavailable, id.InterfaceName, err)
	}

	txt := []string{fmt.Sprintf("flags=%d", id.Flags)}

	server, err := zeroconf.RegisterProxy(
		id.ServiceID,
		ServiceType,
		strings.TrimSuffix(mdnsDomain, "."),
		int(port),
		id.ComputerName+".local",
		[]string{host.String()},
		txt,
		[]net.Interface{*iface},
	)
	if err != nil {
		return nil, fmt.Errorf("advertise %s: %w", id.ServiceID, err)
	}

	slog.Info("mdns: advertising", "service_id", id.ServiceID, "port", port, "iface", id.InterfaceName)
	return &Advertiser{server: server}, nil
}

// Unregister withdraws the service, sending mDNS goodbye packets.
func (a *Advertiser) Unregister() {
	if a.server != nil {
		a.server.Shutdown()
	}
}

// Listener receives typed notifications as the Browser's discovery table
// changes. Registered once with the mDNS engine (spec note: "dynamic
// callbacks" are replaced here by an explicit two-method interface).
type Listener interface {
	ServiceAdded(record *ServiceRecord)
	ServiceRemoved(serviceID string)
}

// Browser asynchronously enumerates AirDrop peers on one interface.
type Browser struct {
	iface    net.Interface
	listener Listener

	mu       sync.Mutex
	lastSeen map[string]time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewBrowser creates a Browser scoped to the named interface. Start must
// be called to begin browsing.
func NewBrowser(interfaceName string, listener Listener) (*Browser, error) {
	iface, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInterfaceUnavailable, interfaceName, err)
	}
	return &Browser{
		iface:    *iface,
		listener: listener,
		lastSeen: make(map[string]time.Time),
		done:     make(chan struct{}),
	}, nil
}

// Start begins the periodic browse loop in the background. mDNS callbacks
// (service additions) are handed to the listener directly; they must not
// block, so callers pairing this with resolution work should dispatch
// through a bounded worker pool (see Dispatcher).
func (b *Browser) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	go func() {
		defer close(b.done)
		b.runRound(ctx) // first round immediately
		ticker := time.NewTicker(browseRescanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.runRound(ctx)
				b.expireStale()
			}
		}
	}()
}

// Stop cancels the browse loop and waits for it to exit.
func (b *Browser) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	<-b.done
}

// runRound executes one bounded Browse call and feeds each entry through
// handleEntry.
func (b *Browser) runRound(ctx context.Context) {
	roundCtx, cancel := context.WithTimeout(ctx, browseRescanInterval)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 32)
	go func() {
		for entry := range entries {
			b.handleEntry(entry)
		}
	}()

	resolver, err := zeroconf.NewResolver(
		zeroconf.SelectIfaces([]net.Interface{b.iface}),
		zeroconf.SelectIPTraffic(zeroconf.IPv6),
	)
	if err != nil {
		slog.Warn("mdns: create resolver failed", "error", err)
		close(entries)
		return
	}

	if err := resolver.Browse(roundCtx, ServiceType, mdnsDomain, entries); err != nil {
		if roundCtx.Err() == nil {
			slog.Warn("mdns: browse round failed", "error", err)
		}
	}
}

// handleEntry converts one resolved ServiceEntry into a ServiceRecord and
// notifies the listener, following the steps in the spec: pick the first
// IPv6 address (dropping the record if there is none) and derive the
// service id from the instance name's first label. Every peer that
// passes those two checks is handed to the listener, whether or not it
// claims SUPPORTS_DISCOVER: that flag only gates the follow-up Discover
// RPC (see Dispatcher.resolve), it has no bearing on table membership.
func (b *Browser) handleEntry(entry *zeroconf.ServiceEntry) {
	if len(entry.AddrIPv6) == 0 {
		slog.Warn("mdns: peer advertised no IPv6 address, dropping", "instance", entry.Instance)
		return
	}

	serviceID := firstLabel(entry.Instance)
	if !serviceIDPattern.MatchString(serviceID) {
		slog.Warn("mdns: instance name has no 12-hex-digit service id", "instance", entry.Instance)
		return
	}

	flags, flagsPresent := parseFlagsTXT(entry.Text)

	record := &ServiceRecord{
		ServiceID:    serviceID,
		Hostname:     entry.HostName,
		Address:      entry.AddrIPv6[0],
		Port:         uint16(entry.Port),
		Flags:        flags,
		FlagsPresent: flagsPresent,
	}

	b.mu.Lock()
	b.lastSeen[serviceID] = time.Now()
	b.mu.Unlock()

	b.listener.ServiceAdded(record)
}

// expireStale notifies the listener of any service id not re-observed
// within recordExpiry, since zeroconf only reports additions.
func (b *Browser) expireStale() {
	cutoff := time.Now().Add(-recordExpiry)
	var stale []string

	b.mu.Lock()
	for id, seen := range b.lastSeen {
		if seen.Before(cutoff) {
			stale = append(stale, id)
			delete(b.lastSeen, id)
		}
	}
	b.mu.Unlock()

	for _, id := range stale {
		b.listener.ServiceRemoved(id)
	}
}

func firstLabel(instanceName string) string {
	if i := strings.Index(instanceName, "."); i >= 0 {
		return instanceName[:i]
	}
	return instanceName
}

func parseFlagsTXT(txt []string) (flags uint32, present bool) {
	for _, kv := range txt {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k != "flags" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			continue
		}
		return uint32(n), true
	}
	return 0, false
}
