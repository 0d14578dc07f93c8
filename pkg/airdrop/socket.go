package airdrop

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// peerToPeerInterface is the well-known AWDL virtual interface name.
// Apple gates AirDrop traffic on this interface behind a socket option;
// other interfaces need no special treatment.
const peerToPeerInterface = "awdl0"

// listenPortRetries bounds how many successive ports a receiver will try
// before giving up when the requested port is already in use.
const listenPortRetries = 8

// AddressOf resolves the first IPv6 address (link-local is acceptable) of
// the named network interface.
func AddressOf(interfaceName string) (net.IP, error) {
	iface, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInterfaceUnavailable, interfaceName, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInterfaceUnavailable, interfaceName, err)
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ipNet.IP.To4() != nil {
			continue
		}
		if ipNet.IP.To16() != nil {
			return ipNet.IP, nil
		}
	}
	if interfaceName == peerToPeerInterface {
		return nil, fmt.Errorf("%w: no IPv6 on %s (is the AWDL helper running to bring the peer-to-peer interface up?)",
			ErrInterfaceUnavailable, interfaceName)
	}
	return nil, fmt.Errorf("%w: no IPv6 on %s", ErrInterfaceUnavailable, interfaceName)
}

// withZone appends "%interfaceName" to host if host is an IPv6 literal
// without a zone identifier already. Hosts that already carry a zone, or
// that aren't IPv6 literals, are left unchanged.
func withZone(host, interfaceName string) string {
	if strings.Contains(host, "%") {
		return host
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() != nil {
		return host
	}
	return host + "%" + interfaceName
}

// Connect dials an AirDrop peer over TCP on the given interface, scoping
// IPv6 link-local addresses with the interface's zone id and, on the
// interfaces that need it, enabling peer-to-peer traffic via a
// platform-specific socket option before connecting. It tries every
// address getaddrinfo-equivalent resolution returns and returns the first
// successful connection, surfacing the last error otherwise.
func Connect(ctx context.Context, host string, port uint16, interfaceName string) (net.Conn, error) {
	host = withZone(host, interfaceName)
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))

	dialer := &net.Dialer{
		Timeout: 30 * time.Second,
		Control: func(network, address string, c syscall.RawConn) error {
			if needsPeerToPeerOption(interfaceName) {
				var sockErr error
				if err := c.Control(func(fd uintptr) {
					sockErr = setPeerToPeerSocketOption(fd)
				}); err != nil {
					return err
				}
				return sockErr
			}
			return nil
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp6", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrPeerUnreachable, addr, err)
	}
	return conn, nil
}

// Listen binds a TCP listener on "::" for the given interface, applying
// the same peer-to-peer socket option as Connect. If the port is already
// in use it retries on successive ports within a small bounded window.
func Listen(port uint16, interfaceName string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			if needsPeerToPeerOption(interfaceName) {
				var sockErr error
				if err := c.Control(func(fd uintptr) {
					sockErr = setPeerToPeerSocketOption(fd)
				}); err != nil {
					return err
				}
				return sockErr
			}
			return nil
		},
	}

	var lastErr error
	p := int(port)
	for i := 0; i < listenPortRetries; i++ {
		addr := net.JoinHostPort("::", strconv.Itoa(p+i))
		ln, err := lc.Listen(context.Background(), "tcp", addr)
		if err == nil {
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: listen on port %d..%d: %v", ErrInterfaceUnavailable, p, p+listenPortRetries-1, lastErr)
}

// needsPeerToPeerOption reports whether interfaceName is a virtual
// peer-to-peer interface requiring the AWDL socket option. Only the
// Darwin family exposes this interface and option.
func needsPeerToPeerOption(interfaceName string) bool {
	return interfaceName == peerToPeerInterface && platformSupportsPeerToPeerOption
}
