package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/ralph-wren/opendrop/internal/config"
	"github.com/ralph-wren/opendrop/pkg/airdrop"
)

func runFind(args []string) {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	configFlag := fs.String("config", "", "path to config file")
	ifaceFlag := fs.String("iface", "", "interface to scan (overrides config)")
	timeoutFlag := fs.Duration("timeout", 5*time.Second, "how long to scan before printing results")
	fs.Parse(args)

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

	table := airdrop.NewTable()
	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	dispatcher := airdrop.NewDispatcher(ctx, id, table, nil)
	defer dispatcher.Stop()

	browser, err := airdrop.NewBrowser(cfg.Network.Interface, dispatcher)
	if err != nil {
		log.Fatalf("browse: %v", err)
	}
	browser.Start(ctx)
	defer browser.Stop()

	<-ctx.Done()

	records := table.Snapshot()
	printDiscoveryTable(records)

	if err := airdrop.WriteReport(reportDir(cfg), airdrop.BuildReport(records)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not persist discovery report: %v\n", err)
	}
}

func printDiscoveryTable(records []airdrop.ServiceRecord) {
	if len(records) == 0 {
		fmt.Println("No peers found.")
		return
	}
	bold := color.New(color.Bold)
	for _, r := range records {
		name := r.Name
		if name == "" {
			name = color.New(color.Faint).Sprint("(not discoverable)")
		} else {
			name = bold.Sprint(name)
		}
		fmt.Printf("%s  %s  [%s]:%d\n", r.ServiceID, name, r.Address, r.Port)
	}
}

func reportDir(cfg *config.Config) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".opendrop"
	}
	return home + "/.opendrop"
}
