package airdrop

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// AskRequestInfo is what a Server hands to its AcceptFunc so the
// embedding application can prompt a human (or apply a policy) before
// answering Ask.
type AskRequestInfo struct {
	SenderComputerName string
	SenderModelName    string
	Items              []AskItem
	FileIcon           []byte
	URLMode            bool
}

// AcceptFunc decides whether to accept an incoming Ask request. uploadDir
// is where the Server will materialize any subsequent Upload for this
// transfer if the function returns true.
type AcceptFunc func(ctx context.Context, info AskRequestInfo) (accept bool, uploadDir string)

// Server answers the three AirDrop RPCs over the identity's persistent
// TLS listener.
type Server struct {
	identity *Identity
	accept   AcceptFunc
	metrics  *Metrics

	mux        *http.ServeMux
	httpServer *http.Server

	// uploadDirMu guards uploadDirByConn, which remembers the directory
	// Ask accepted for a given TCP connection until the matching Upload
	// consumes it. Keyed by RemoteAddr rather than a server-wide field
	// because Ask and Upload from one peer share a persistent connection,
	// but the Server itself is shared across every concurrently connected
	// peer.
	uploadDirMu     sync.Mutex
	uploadDirByConn map[string]string
}

// NewServer builds the HTTP dispatcher for id. accept is consulted on
// every Ask; metrics may be nil to disable instrumentation.
func NewServer(id *Identity, accept AcceptFunc, metrics *Metrics) *Server {
	s := &Server{identity: id, accept: accept, metrics: metrics, uploadDirByConn: make(map[string]string)}

	mux := http.NewServeMux()
	mux.HandleFunc("HEAD /", s.handleProbeHead)
	mux.HandleFunc("GET /", s.handleProbeGet)
	mux.HandleFunc("POST /Discover", s.handleDiscover)
	mux.HandleFunc("POST /Ask", s.handleAsk)
	mux.HandleFunc("POST /Upload", s.handleUpload)
	s.mux = mux

	s.httpServer = &http.Server{
		Handler:   mux,
		TLSConfig: NewTLSConfig(id),
	}
	return s
}

// Serve accepts connections on ln until it is closed or ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		s.httpServer.Close()
	}()
	err := s.httpServer.ServeTLS(ln, "", "")
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleProbeHead answers Apple clients' pre-flight HEAD probe: empty
// 200 response, text/html, used purely to confirm the peer is alive.
func (s *Server) handleProbeHead(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
}

// handleProbeGet answers any GET with a one-line body; AirDrop clients
// occasionally poll this before starting the real handshake.
func (s *Server) handleProbeGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "\n")
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.countDiscover("error")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	var req discoverRequest
	_ = decodeBPlist(body, &req) // SenderRecordData is optional; ignore decode errors on an empty body

	resp := discoverResponse{
		ReceiverComputerName:      s.identity.ComputerName,
		ReceiverModelName:         s.identity.ComputerModel,
		ReceiverMediaCapabilities: emptyMediaCapabilities,
		ReceiverRecordData:        s.identity.ValidationData,
	}

	encoded, err := encodeBPlist(resp)
	if err != nil {
		s.countDiscover("error")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	s.countDiscover("ok")
	w.Header().Set("Content-Type", contentTypeBPlist)
	w.WriteHeader(http.StatusOK)
	w.Write(encoded)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
	if err != nil {
		s.countAsk("error")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	var req askRequest
	if err := decodeBPlist(body, &req); err != nil {
		s.countAsk("error")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	urlMode := len(req.Items) > 0 && len(req.Files) == 0
	items := make([]AskItem, 0, len(req.Files)+len(req.Items))
	for _, f := range req.Files {
		items = append(items, AskItem{Name: f.FileName, UTI: f.FileType, IsDirectory: f.FileIsDirectory})
	}
	for _, name := range req.Items {
		items = append(items, AskItem{Name: name})
	}

	info := AskRequestInfo{
		SenderComputerName: req.SenderComputerName,
		SenderModelName:    req.SenderModelName,
		Items:              items,
		FileIcon:           req.FileIcon,
		URLMode:            urlMode,
	}

	accepted, uploadDir := s.accept(r.Context(), info)
	if !accepted {
		s.countAsk("declined")
		http.Error(w, "", http.StatusForbidden)
		return
	}
	s.uploadDirMu.Lock()
	s.uploadDirByConn[r.RemoteAddr] = uploadDir
	s.uploadDirMu.Unlock()

	resp := askResponse{
		ReceiverComputerName: s.identity.ComputerName,
		ReceiverModelName:    s.identity.ComputerModel,
	}
	encoded, err := encodeBPlist(resp)
	if err != nil {
		s.countAsk("error")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	s.countAsk("accepted")
	w.Header().Set("Content-Type", contentTypeBPlist)
	w.WriteHeader(http.StatusOK)
	w.Write(encoded)
}

// handleUpload validates the preconditions the spec places on the Upload
// request — content type and chunked encoding — before streaming the
// body through the archive decoder. The Expect: 100-continue interim
// response is sent automatically by net/http on the first Body read, so
// there's nothing to do for it here.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(r.Header.Get("Content-Type"), contentTypeCPIO) {
		w.Header().Set("Connection", "close")
		http.Error(w, "", http.StatusNotAcceptable)
		s.countUpload("error")
		return
	}

	chunked := false
	for _, enc := range r.TransferEncoding {
		if strings.EqualFold(enc, "chunked") {
			chunked = true
		}
	}
	if !chunked {
		w.Header().Set("Connection", "close")
		http.Error(w, "", http.StatusBadRequest)
		s.countUpload("error")
		return
	}

	s.uploadDirMu.Lock()
	destDir := s.uploadDirByConn[r.RemoteAddr]
	delete(s.uploadDirByConn, r.RemoteAddr)
	s.uploadDirMu.Unlock()
	if destDir == "" {
		destDir = "."
	}

	start := time.Now()
	written, err := ExtractArchive(r.Body, destDir)
	elapsed := time.Since(start)

	if err != nil {
		slog.Error("upload: archive extraction failed", "error", err, "bytes", written)
		w.Header().Set("Connection", "close")
		http.Error(w, "", http.StatusInternalServerError)
		s.countUpload("error")
		return
	}

	slog.Info("upload: transfer complete", "bytes", written, "duration", elapsed)
	if s.metrics != nil {
		s.metrics.BytesTransferred.Add(float64(written))
		s.metrics.TransferDuration.Observe(elapsed.Seconds())
	}
	s.countUpload("ok")

	w.Header().Set("Content-Length", "0")
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) countDiscover(outcome string) {
	if s.metrics != nil {
		s.metrics.DiscoverOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countAsk(outcome string) {
	if s.metrics != nil {
		s.metrics.AskOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countUpload(outcome string) {
	if s.metrics != nil {
		s.metrics.UploadOutcomes.WithLabelValues(outcome).Inc()
	}
}
