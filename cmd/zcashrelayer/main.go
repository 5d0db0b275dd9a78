// Command zcashrelayer runs the automated hot-wallet relayer loop: it
// funds pending HTLC creations, broadcasts pre-signed redemptions, and
// refunds expired HTLCs on a fixed poll interval until terminated.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klingon-htlc/zcash-htlc/internal/htlc"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcstore"
	"github.com/klingon-htlc/zcash-htlc/internal/relayer"
	"github.com/klingon-htlc/zcash-htlc/internal/zecconfig"
	"github.com/klingon-htlc/zcash-htlc/internal/zecrpc"
	"github.com/klingon-htlc/zcash-htlc/pkg/logging"
)

var version = "0.1.0-dev"

func main() {
	var (
		configFile  = flag.String("config", "", "Config file path (default: discovery order, see internal/zecconfig)")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	log := logging.New(&logging.Config{Level: *logLevel, TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("zcashrelayer %s", version)
		os.Exit(0)
	}

	log.Infof("loading configuration...")
	cfg, err := zecconfig.Load(*configFile)
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	if cfg.Relayer == nil {
		log.Fatal("relayer config missing in zcash-config.yaml")
	}

	store, err := htlcstore.New(&htlcstore.Config{DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		log.Fatal("failed to open store", "error", err)
	}
	defer store.Close()

	rpc := zecrpc.NewClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	coord := htlc.New(store, rpc, cfg.NetworkValue())
	r := relayer.New(coord, cfg.Relayer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	printBanner(log, cfg)

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Infof("shutting down...")
	cancel()
	<-done
	log.Infof("goodbye!")
}

func printBanner(log *logging.Logger, cfg *zecconfig.Config) {
	log.Info("")
	log.Info("=================================================")
	log.Infof("  Zcash HTLC Relayer (%s)", cfg.Network)
	log.Infof("  Version: %s", version)
	log.Info("=================================================")
	log.Info("")
	log.Infof("  Hot wallet: %s", cfg.Relayer.HotWalletAddress)
	log.Infof("  Poll interval: %ds", cfg.Relayer.PollIntervalSecs)
	log.Infof("  Max tx per batch: %d", cfg.Relayer.MaxTxPerBatch)
	log.Info("")
	log.Info("=================================================")
	log.Info("")
}
