//go:build darwin

package airdrop

import "golang.org/x/sys/unix"

// peerToPeerSocketOption is SOL_SOCKET/SO_RECV_ANYIF (0x1104), the
// documented mechanism Apple uses to permit traffic over AWDL. It is not
// exposed as a named constant in package unix, so it is spelled out here
// the same way the reference implementation does.
const peerToPeerSocketOption = 0x1104

const platformSupportsPeerToPeerOption = true

func setPeerToPeerSocketOption(fd uintptr) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, peerToPeerSocketOption, 1)
}
