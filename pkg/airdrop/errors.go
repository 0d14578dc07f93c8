package airdrop

import "errors"

// Error taxonomy for the protocol core. Each sentinel is meant to be
// wrapped with fmt.Errorf("...: %w", err) at the call site so callers can
// still errors.Is against the category while getting a specific message.
var (
	// ErrInterfaceUnavailable means the named interface has no usable
	// IPv6 address.
	ErrInterfaceUnavailable = errors.New("interface unavailable")

	// ErrPeerUnreachable means a connect or TLS handshake failed.
	ErrPeerUnreachable = errors.New("peer unreachable")

	// ErrProtocolViolation means a peer sent a malformed or incomplete
	// request: a missing plist key, bad chunk framing, wrong content type.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrDeclined means an Ask request returned a non-200 status.
	ErrDeclined = errors.New("receiver declined")

	// ErrTransferFailure means Upload returned non-200 or the archive
	// stream ended early.
	ErrTransferFailure = errors.New("transfer failed")
)
