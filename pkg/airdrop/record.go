package airdrop

import "net"

// Flag bits advertised in the mDNS "flags" TXT record. Most are opaque;
// only SUPPORTS_DISCOVER is interpreted by this core.
const (
	FlagSupportsURL         uint32 = 0x001
	FlagSupportsDVZip       uint32 = 0x002
	FlagSupportsPipelining  uint32 = 0x004
	FlagSupportsMixedTypes  uint32 = 0x008
	FlagSupportsIris        uint32 = 0x040
	FlagSupportsDiscover    uint32 = 0x080
	FlagSupportsAssetBundle uint32 = 0x200

	// DefaultReceiverFlags is advertised by this implementation's
	// receiver: it accepts heterogeneous file lists and serves /Discover.
	DefaultReceiverFlags = FlagSupportsMixedTypes | FlagSupportsDiscover
)

// ServiceRecord describes one peer discovered via mDNS, optionally
// enriched by a successful Discover RPC.
//
// Name is the empty string until a Discover response fills it in;
// Discoverable is derived from Name rather than tracked as a separate
// field so the two can never drift (spec note: the reference
// implementation had two divergent definitions of this invariant).
type ServiceRecord struct {
	ServiceID    string // 12 lowercase hex digits
	Hostname     string // e.g. "somehost.local."
	Address      net.IP // one IPv6 link-local address
	Port         uint16
	Flags        uint32
	FlagsPresent bool // whether the peer advertised a "flags" TXT key at all
	Name         string
}

// Discoverable reports whether a Discover response yielded a non-empty
// receiver name.
func (r *ServiceRecord) Discoverable() bool {
	return r.Name != ""
}

// SupportsDiscover reports whether the peer's advertised flags claim
// support for the /Discover endpoint. Per the open question in the
// spec, absence of the flags TXT key is treated optimistically as if
// SUPPORTS_DISCOVER were set, matching the reference implementation.
func SupportsDiscover(flags uint32, flagsPresent bool) bool {
	if !flagsPresent {
		return true
	}
	return flags&FlagSupportsDiscover != 0
}
