package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ralph-wren/opendrop/internal/config"
	"github.com/ralph-wren/opendrop/pkg/airdrop"
)

const findTimeout = 5 * time.Second

func runSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	configFlag := fs.String("config", "", "path to config file")
	ifaceFlag := fs.String("iface", "", "interface to use (overrides config)")
	toFlag := fs.String("to", "", "service id of the peer to send to (see `opendrop find`)")
	urlMode := fs.Bool("url", false, "send as a URL/link reference instead of uploading file bytes")
	fs.Parse(args)

	paths := fs.Args()
	if *toFlag == "" || len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: opendrop send --to <service-id> <file> [<file>...]")
		os.Exit(1)
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			log.Fatalf("file: %v", err)
		}
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *ifaceFlag != "" {
		cfg.Network.Interface = *ifaceFlag
	}

	id, err := airdrop.LoadOrCreateIdentity(cfg.Identity.KeyDir, cfg.Identity.ServiceID, computerName(cfg), computerModel(cfg), cfg.Network.Interface)
	if err != nil {
		log.Fatalf("identity: %v", err)
	}

	record, err := findPeer(id, cfg, *toFlag)
	if err != nil {
		log.Fatalf("find peer: %v", err)
	}

	items := make([]airdrop.AskItem, len(paths))
	var icon []byte
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			log.Fatalf("stat %s: %v", p, err)
		}
		header, uti := sniffFile(p)
		items[i] = airdrop.AskItem{Name: info.Name(), UTI: uti, IsDirectory: info.IsDir()}
		if icon == nil && airdrop.IsImageUTI(uti) {
			icon = header
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	outcome, client, err := airdrop.AskPeer(ctx, id, record, items, icon, *urlMode)
	if err != nil {
		if errors.Is(err, airdrop.ErrDeclined) {
			fmt.Println("Transfer declined.")
			return
		}
		log.Fatalf("ask: %v", err)
	}

	fmt.Printf("%s accepted the transfer.\n", outcome.ReceiverComputerName)

	if *urlMode {
		return
	}

	if err := airdrop.UploadPeer(ctx, client, record, paths); err != nil {
		log.Fatalf("upload: %v", err)
	}
	fmt.Println("Transfer complete.")
}

// findPeer runs a short browse pass scoped to cfg's interface and
// returns the record matching serviceID, erroring out if the peer never
// shows up within findTimeout.
func findPeer(id *airdrop.Identity, cfg *config.Config, serviceID string) (*airdrop.ServiceRecord, error) {
	table := airdrop.NewTable()
	ctx, cancel := context.WithTimeout(context.Background(), findTimeout)
	defer cancel()

	dispatcher := airdrop.NewDispatcher(ctx, id, table, nil)
	defer dispatcher.Stop()

	browser, err := airdrop.NewBrowser(cfg.Network.Interface, dispatcher)
	if err != nil {
		return nil, err
	}
	browser.Start(ctx)
	defer browser.Stop()

	<-ctx.Done()

	record, ok := table.Get(serviceID)
	if !ok {
		return nil, fmt.Errorf("%w: no peer with service id %s seen on %s", airdrop.ErrPeerUnreachable, serviceID, cfg.Network.Interface)
	}
	return &record, nil
}

// sniffFile reads a file's leading bytes and returns them alongside the
// UTI they imply. The header bytes double as a crude FileIcon for image
// files: opendrop doesn't generate thumbnails, so the closest honest
// stand-in is the image's own encoded bytes.
func sniffFile(path string) (header []byte, uti string) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "public.data"
	}
	defer f.Close()

	buf := make([]byte, 128)
	n, _ := f.Read(buf)
	buf = buf[:n]
	return buf, airdrop.InferUTI(buf)
}
