package airdrop

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, accept AcceptFunc) (*httptest.Server, *Identity) {
	t.Helper()
	id, err := LoadOrCreateIdentity(t.TempDir(), "", "Receiver Mac", "PC/Go", "en0")
	require.NoError(t, err)

	s := NewServer(id, accept, nil)
	return httptest.NewServer(s.mux), id
}

func TestHandleDiscover(t *testing.T) {
	srv, _ := newTestServer(t, func(context.Context, AskRequestInfo) (bool, string) { return false, "" })
	defer srv.Close()

	body, err := encodeBPlist(discoverRequest{})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/Discover", contentTypeBPlist, bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var reply discoverResponse
	require.NoError(t, decodeBPlist(raw, &reply))
	require.Equal(t, "Receiver Mac", reply.ReceiverComputerName)
}

func TestHandleAskDeclined(t *testing.T) {
	srv, _ := newTestServer(t, func(context.Context, AskRequestInfo) (bool, string) { return false, "" })
	defer srv.Close()

	body, err := encodeBPlist(askRequest{SenderComputerName: "Sender Mac", Files: []askFile{{FileName: "a.txt", FileType: "public.data"}}})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/Ask", contentTypeBPlist, bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandleAskAccepted(t *testing.T) {
	destDir := ""
	srv, _ := newTestServer(t, func(context.Context, AskRequestInfo) (bool, string) {
		return true, destDir
	})
	defer srv.Close()

	body, err := encodeBPlist(askRequest{SenderComputerName: "Sender Mac", Files: []askFile{{FileName: "a.txt", FileType: "public.data"}}})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/Ask", contentTypeBPlist, bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var reply askResponse
	require.NoError(t, decodeBPlist(raw, &reply))
	require.Equal(t, "Receiver Mac", reply.ReceiverComputerName)
}

func TestHandleUploadWrongContentType(t *testing.T) {
	srv, _ := newTestServer(t, func(context.Context, AskRequestInfo) (bool, string) { return true, t.TempDir() })
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/Upload", "application/octet-stream", bytes.NewReader([]byte("junk")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
}

func TestHandleUploadNonChunkedRejected(t *testing.T) {
	srv, _ := newTestServer(t, func(context.Context, AskRequestInfo) (bool, string) { return true, t.TempDir() })
	defer srv.Close()

	// An http.Client always sets Content-Length when the body is a
	// bytes.Reader, which forces Content-Length framing instead of
	// chunked — exactly the "not chunked" case handleUpload must reject.
	resp, err := http.Post(srv.URL+"/Upload", contentTypeCPIO, bytes.NewReader([]byte("junk")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleUploadSuccess(t *testing.T) {
	destDir := t.TempDir()
	srv, _ := newTestServer(t, func(context.Context, AskRequestInfo) (bool, string) { return true, destDir })
	defer srv.Close()

	sourceDir := t.TempDir()
	filePath := filepath.Join(sourceDir, "gift.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("surprise"), 0644))

	// First, Ask records destDir against this connection.
	askBody, err := encodeBPlist(askRequest{SenderComputerName: "Sender Mac", Files: []askFile{{FileName: "gift.txt"}}})
	require.NoError(t, err)
	askResp, err := http.Post(srv.URL+"/Ask", contentTypeBPlist, bytes.NewReader(askBody))
	require.NoError(t, err)
	io.Copy(io.Discard, askResp.Body) // drain so the client reuses the connection for Upload
	askResp.Body.Close()
	require.Equal(t, http.StatusOK, askResp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/Upload", PipeArchive([]string{filePath}))
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentTypeCPIO)
	req.ContentLength = -1 // force chunked transfer encoding

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := os.ReadFile(filepath.Join(destDir, "gift.txt"))
	require.NoError(t, err)
	require.Equal(t, "surprise", string(got))
}
