package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/unc0mm0n/kung-fu-chess/internal/fanout"
	"github.com/unc0mm0n/kung-fu-chess/internal/manager"
	"github.com/unc0mm0n/kung-fu-chess/internal/queue"
	"github.com/unc0mm0n/kung-fu-chess/internal/store"
)

var (
	numWorkers = flag.Int("workers", runtime.GOMAXPROCS(0), "number of manager worker goroutines")
	idleTTL    = flag.Duration("ttl", time.Hour, "idle TTL for the request/response queues (game records take theirs from game-req's exp, 1h when absent)")
)

func main() {
	flag.Parse()
	if flag.NArg() != 4 {
		log.Fatalf("usage: %s [-workers N] [-ttl DURATION] <request-queue> <response-queue> <store-host> <store-port>", os.Args[0])
	}
	requestQueueName := flag.Arg(0)
	responseQueueName := flag.Arg(1)
	storeHost := flag.Arg(2)
	storePort := flag.Arg(3)
	if _, err := strconv.ParseUint(storePort, 10, 16); err != nil {
		log.Fatalf("store-port must be a port number 0-65535 (reserved for a future networked backend): %v", err)
	}

	dataDir, err := store.ResolveDataDir(storeHost)
	if err != nil {
		log.Fatalf("could not resolve store data directory: %v", err)
	}
	s, err := store.OpenBadgerStore(dataDir)
	if err != nil {
		log.Fatalf("could not open store at %s: %v", dataDir, err)
	}
	defer s.Close()

	reqQueue := queue.NewQueue(*idleTTL)
	respQueue := queue.NewQueue(*idleTTL)

	mgr := manager.New(reqQueue, respQueue, s, *numWorkers, func() int64 {
		return time.Now().UnixMilli()
	})
	hub := fanout.NewHub(respQueue, *numWorkers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	log.Printf("kfchess-manager: %d workers, queues=%s/%s, store=%s, ttl=%s",
		*numWorkers, requestQueueName, responseQueueName, dataDir, *idleTTL)
	if err := mgr.Run(ctx); err != nil {
		log.Fatalf("manager exited with error: %v", err)
	}

	<-hubDone
}
