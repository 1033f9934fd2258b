package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voxelcircuit.ai/internal/diag"
	"voxelcircuit.ai/internal/library"
	"voxelcircuit.ai/internal/persistence/indexdb"
	persistlog "voxelcircuit.ai/internal/persistence/log"
	"voxelcircuit.ai/internal/sim/tuning"
	"voxelcircuit.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", "", "http listen address (default: tuning listen_addr)")
		libDir     = flag.String("library", "", "library directory (default: tuning library_dir)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (optional)")
		indexDB    = flag.String("index_db", "", "sqlite run index path (default: tuning index_db; empty disables)")
		archiveDir = flag.String("archive_dir", "", "diagnostics archive directory (default: tuning archive_dir)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[circuitd] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if *addr != "" {
		tune.ListenAddr = *addr
	}
	if *libDir != "" {
		tune.LibraryDir = *libDir
	}
	if *indexDB != "" {
		tune.IndexDB = *indexDB
	}
	if *archiveDir != "" {
		tune.ArchiveDir = *archiveDir
	}

	var idx *indexdb.SQLiteIndex
	if tune.IndexDB != "" {
		idx, err = indexdb.OpenSQLite(tune.IndexDB)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	} else {
		logger.Printf("run index disabled")
	}

	var archive diag.Sink
	if tune.ArchiveDir != "" {
		dl := persistlog.NewDiagLogger(tune.ArchiveDir, "circuitd")
		defer dl.Close()
		archive = dl
	}

	cfg := ws.Config{
		Library: library.NewConfinedLoader(tune.LibraryDir),
		Tuning:  tune,
		Archive: archive,
	}
	if idx != nil {
		cfg.Index = idx
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              tune.ListenAddr,
		Handler:           newMux(ws.NewServer(cfg, logger), idx),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (library %s)", tune.ListenAddr, tune.LibraryDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
