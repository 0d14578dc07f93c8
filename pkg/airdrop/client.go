package airdrop

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	userAgent         = "AirDrop/1.0"
	contentTypeBPlist = "application/octet-stream"
	contentTypeCPIO   = "application/x-cpio"

	requestTimeout = 30 * time.Second
)

// peerURL is the placeholder origin every request is built against; the
// transport's DialContext ignores it entirely and always dials the
// ServiceRecord's interface-scoped address instead. Only the path varies.
const peerURL = "https://airdrop.local"

// newPeerClient builds an http.Client scoped to a single peer: its
// Transport dials straight to record's address on the identity's
// interface and TLS-wraps the raw connection with the same mutually
// tolerant config the server uses, then keeps that one connection alive
// across Discover, Ask and Upload.
func newPeerClient(id *Identity, record *ServiceRecord) *http.Client {
	tlsConfig := NewTLSConfig(id)

	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		raw, err := Connect(ctx, record.Address.String(), record.Port, id.InterfaceName)
		if err != nil {
			return nil, err
		}
		conn := tls.Client(raw, tlsConfig)
		if err := conn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return nil, fmt.Errorf("%w: tls handshake: %v", ErrPeerUnreachable, err)
		}
		return conn, nil
	}

	return &http.Client{
		Transport: &http.Transport{
			DialContext:         dial,
			DialTLSContext:      dial,
			MaxIdleConnsPerHost: 1,
			IdleConnTimeout:     requestTimeout,
		},
		Timeout: requestTimeout,
	}
}

func peerRequest(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, peerURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-us")
	req.Header.Set("Accept-Encoding", "br, gzip, deflate")
	return req, nil
}

// DiscoverPeer performs the Discover handshake against record and
// returns the peer's advertised computer name, the record's Name field
// for the caller to fill in. Any transport error, non-200 status, or
// undecodable body is reported as "not discoverable" via
// ErrPeerUnreachable, matching the spec's treatment of Discover failures
// as silent non-discoverability rather than hard errors.
func DiscoverPeer(ctx context.Context, id *Identity, record *ServiceRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	client := newPeerClient(id, record)
	defer client.CloseIdleConnections()

	selfRecord, err := encodeBPlist(discoverRequest{SenderRecordData: id.ValidationData})
	if err != nil {
		return "", fmt.Errorf("encode discover request: %w", err)
	}

	req, err := peerRequest(ctx, http.MethodPost, "/Discover", contentTypeBPlist, bytes.NewReader(selfRecord))
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: discover: %v", ErrPeerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: discover returned %d", ErrPeerUnreachable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read discover response: %v", ErrPeerUnreachable, err)
	}

	var reply discoverResponse
	if err := decodeBPlist(raw, &reply); err != nil {
		return "", fmt.Errorf("%w: decode discover response: %v", ErrPeerUnreachable, err)
	}
	if reply.ReceiverComputerName == "" {
		return "", fmt.Errorf("%w: discover response has no computer name", ErrPeerUnreachable)
	}

	return reply.ReceiverComputerName, nil
}

// AskOutcome describes the result of an Ask request.
type AskOutcome struct {
	Accepted             bool
	ReceiverComputerName string
}

// AskItem describes one file offered in an Ask request.
type AskItem struct {
	Name        string
	UTI         string
	IsDirectory bool
}

// AskPeer offers a transfer to record and waits for the user on the
// other end to accept or decline. A 200 response means acceptance; any
// other status is reported as ErrDeclined. A transport failure, including
// the connection closing before a response arrives, is reported as
// ErrPeerUnreachable.
func AskPeer(ctx context.Context, id *Identity, record *ServiceRecord, items []AskItem, icon []byte, useURL bool) (*AskOutcome, *http.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	client := newPeerClient(id, record)

	files := make([]askFile, len(items))
	for i, item := range items {
		files[i] = askFile{
			FileName:        item.Name,
			FileType:        item.UTI,
			FileIsDirectory: item.IsDirectory,
		}
	}

	body := askRequest{
		SenderComputerName: id.ComputerName,
		SenderModelName:    id.ComputerModel,
		SenderID:           id.ServiceID,
		BundleID:           bundleID,
		Files:              files,
		FileIcon:           icon,
		SenderRecordData:   id.ValidationData,
	}
	if useURL {
		names := make([]string, len(items))
		for i, item := range items {
			names[i] = item.Name
		}
		body.Items = names
		body.Files = nil
	}

	encoded, err := encodeBPlist(body)
	if err != nil {
		client.CloseIdleConnections()
		return nil, nil, fmt.Errorf("encode ask request: %w", err)
	}

	req, err := peerRequest(ctx, http.MethodPost, "/Ask", contentTypeBPlist, bytes.NewReader(encoded))
	if err != nil {
		client.CloseIdleConnections()
		return nil, nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		client.CloseIdleConnections()
		return nil, nil, fmt.Errorf("%w: ask: %v", ErrPeerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		client.CloseIdleConnections()
		return &AskOutcome{Accepted: false}, nil, ErrDeclined
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		client.CloseIdleConnections()
		return nil, nil, fmt.Errorf("%w: read ask response: %v", ErrPeerUnreachable, err)
	}

	var reply askResponse
	if err := decodeBPlist(raw, &reply); err != nil {
		client.CloseIdleConnections()
		return nil, nil, fmt.Errorf("%w: decode ask response: %v", ErrPeerUnreachable, err)
	}

	return &AskOutcome{Accepted: true, ReceiverComputerName: reply.ReceiverComputerName}, client, nil
}

// UploadPeer streams the archived paths to record over client, the same
// connection AskPeer used to get acceptance. It is skipped entirely in
// URL mode, per the protocol: once the receiver has the link, transfer
// happens out of band.
func UploadPeer(ctx context.Context, client *http.Client, record *ServiceRecord, paths []string) error {
	defer client.CloseIdleConnections()

	archive := PipeArchive(paths)
	defer archive.Close()

	req, err := peerRequest(ctx, http.MethodPost, "/Upload", contentTypeCPIO, archive)
	if err != nil {
		return err
	}
	req.TransferEncoding = []string{"chunked"}
	req.ContentLength = -1

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: upload: %v", ErrTransferFailure, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: upload returned %d", ErrTransferFailure, resp.StatusCode)
	}
	return nil
}
