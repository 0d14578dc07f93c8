package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ralph-wren/opendrop/internal/config"
	"github.com/ralph-wren/opendrop/pkg/airdrop"
)

func runReceive(args []string) {
	fs := flag.NewFlagSet("receive", flag.ExitOnError)
	configFlag := fs.String("config", "", "path to config file")
	ifaceFlag := fs.String("iface", "", "interface to bind (overrides config)")
	downloadDirFlag := fs.String("download-dir", "", "where accepted transfers are written (overrides config)")
	autoAcceptFlag := fs.Bool("yes", false, "accept every incoming transfer without prompting")
	fs.Parse(args)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *ifaceFlag != "" {
		cfg.Network.Interface = *ifaceFlag
	}
	if *downloadDirFlag != "" {
		cfg.Security.DownloadDir = *downloadDirFlag
	}

	id, err := airdrop.LoadOrCreateIdentity(cfg.Identity.KeyDir, cfg.Identity.ServiceID, computerName(cfg), computerModel(cfg), cfg.Network.Interface)
	if err != nil {
		log.Fatalf("identity: %v", err)
	}

	host, err := airdrop.AddressOf(cfg.Network.Interface)
	if err != nil {
		log.Fatalf("network: %v", err)
	}

	ln, err := airdrop.Listen(cfg.Network.Port, cfg.Network.Interface)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	var metrics *airdrop.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		metrics = airdrop.NewMetrics()
		go serveMetrics(cfg.Telemetry.Metrics.ListenAddress, metrics)
	}

	accept := func(ctx context.Context, info airdrop.AskRequestInfo) (bool, string) {
		if !*autoAcceptFlag && !promptAccept(info) {
			return false, ""
		}
		if err := os.MkdirAll(cfg.Security.DownloadDir, 0755); err != nil {
			slog.Error("receive: cannot create download directory", "error", err)
			return false, ""
		}
		return true, cfg.Security.DownloadDir
	}

	server := airdrop.NewServer(id, accept, metrics)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	boundPort := cfg.Network.Port
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		boundPort = uint16(tcpAddr.Port)
	}

	advertiser, err := airdrop.Advertise(id, host, boundPort)
	if err != nil {
		log.Fatalf("advertise: %v", err)
	}
	defer advertiser.Unregister()

	fmt.Printf("opendrop: receiving as %q on %s, port %d\n", id.ComputerName, cfg.Network.Interface, boundPort)

	go func() {
		if err := server.Serve(ctx, ln); err != nil {
			slog.Error("receive: server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	fmt.Println("opendrop: shutting down")
}

func promptAccept(info airdrop.AskRequestInfo) bool {
	fmt.Printf("%s wants to send you:\n", info.SenderComputerName)
	for _, item := range info.Items {
		fmt.Printf("  %s\n", item.Name)
	}
	fmt.Print("Accept? [y/N] ")

	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return len(line) > 0 && (line[0] == 'y' || line[0] == 'Y')
}

func computerName(cfg *config.Config) string {
	if cfg.Identity.ComputerName != "" {
		return cfg.Identity.ComputerName
	}
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "opendrop"
}

func computerModel(cfg *config.Config) string {
	if cfg.Identity.ComputerModel != "" {
		return cfg.Identity.ComputerModel
	}
	return "PC/Go"
}

func serveMetrics(addr string, metrics *airdrop.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	slog.Info("receive: metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("receive: metrics server stopped", "error", err)
	}
}
