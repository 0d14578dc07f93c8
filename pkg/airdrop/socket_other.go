//go:build !darwin

package airdrop

const platformSupportsPeerToPeerOption = false

// setPeerToPeerSocketOption is unreachable on non-Darwin platforms:
// needsPeerToPeerOption always reports false there, so the Connect and
// Listen socket hooks never call this.
func setPeerToPeerSocketOption(fd uintptr) error {
	return nil
}
