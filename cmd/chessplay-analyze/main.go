// Command chessplay-analyze runs the HTTP analysis shell: a debug server
// wrapping the single-threaded search core so a browser or curl can request
// a scored best move, a perft count, or a board diagram without speaking
// UCI over stdin/stdout.
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

	"github.com/gorilla/handlers"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessplay/internal/analyze"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/tablebase"
)

var (
	addr       = flag.String("addr", ":8080", "address to listen on")
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	bookPath   = flag.String("book", "", "path to a Polyglot opening book")
	syzygyPath = flag.String("syzygy", "", "path to a directory of Syzygy tablebase files")
)

func main() {
	flag.Parse()

	eng := engine.NewEngine(*hashMB)
	if *bookPath != "" {
		if err := eng.LoadBook(*bookPath); err != nil {
			log.Printf("warning: failed to load book %s: %v", *bookPath, err)
		}
	}
	if *syzygyPath != "" {
		eng.SetTablebase(tablebase.NewSyzygyProber(*syzygyPath))
	}

	srv := analyze.New(eng)
	handler := handlers.LoggingHandler(os.Stdout,
		handlers.RecoveryHandler()(srv.Router()))

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("chessplay-analyze listening on %s", *addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("chessplay-analyze: %v", err)
	}
}
