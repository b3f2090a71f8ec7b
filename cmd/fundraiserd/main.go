package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vocdoni/fundraiser-z-sandbox/crypto/sealed"
	"github.com/vocdoni/fundraiser-z-sandbox/ledger"
	"github.com/vocdoni/fundraiser-z-sandbox/service"
	"github.com/vocdoni/fundraiser-z-sandbox/storage"
	"github.com/vocdoni/fundraiser-z-sandbox/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"
)

// logTransferor stands in for the payment layer: it logs the transfers the
// ledger orders instead of moving real funds.
type logTransferor struct{}

func (logTransferor) Transfer(to common.Address, amount *types.BigInt) error {
	log.Infow("funds transfer", "to", to.Hex(), "amount", amount.String())
	return nil
}

func main() {
	host := flag.String("host", "0.0.0.0", "API host to bind")
	port := flag.Int("port", 8080, "API port to bind")
	dataDir := flag.String("dataDir", "fundraiser-data", "data directory for the campaign database")
	logLevel := flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	monitorInterval := flag.Duration("monitorInterval", time.Minute, "campaign deadline scan interval")
	flag.Parse()

	log.Init(*logLevel, "stdout", nil)

	database, err := metadb.New(db.TypePebble, *dataDir)
	if err != nil {
		log.Fatalf("could not open database: %v", err)
	}
	store := storage.New(database)
	defer store.Close()

	lgr := ledger.New(store, sealed.PoseidonVerifier{}, logTransferor{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiService := service.NewAPI(lgr, *host, *port)
	if err := apiService.Start(ctx); err != nil {
		log.Fatalf("could not start API service: %v", err)
	}
	defer apiService.Stop()

	monitor := service.NewDeadlineMonitor(lgr, *monitorInterval)
	if err := monitor.Start(ctx); err != nil {
		log.Fatalf("could not start deadline monitor: %v", err)
	}
	defer monitor.Stop()

	log.Infow("fundraiser daemon running", "host", *host, "port", *port, "dataDir", *dataDir)

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("shutting down", "signal", sig.String())
}
