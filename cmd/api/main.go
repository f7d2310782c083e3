package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greenkart/internal/config"
	"greenkart/internal/dates"
	"greenkart/internal/httpx"
	kafkax "greenkart/internal/kafka"
	"greenkart/internal/orders"
	"greenkart/internal/postgres"
	"greenkart/internal/recurring"
	"greenkart/internal/redisx"
	"greenkart/internal/subscriptions"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers (satu per topic, lihat topics.go)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prod.Start(ctx)
	prodStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	prodStatus.Start(ctx)

	// Repos & handlers
	orderRepo := &orders.Repo{DB: db}
	subRepo := &subscriptions.Repo{DB: db}
	zone := dates.LoadZone(cfg.Timezone)

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Repo:           orderRepo,
		Producer:       prod,
		StatusProducer: prodStatus,
		Redis:          rdb,
		Service:        cfg.ServiceName,
	}
	oh.Register(router)

	job := &recurring.Job{
		Store:          recurring.PGStore{Orders: orderRepo, Subs: subRepo},
		Producer:       prod,
		Redis:          rdb,
		Zone:           zone,
		ChunkSize:      cfg.LookupChunkSize,
		MissingProduct: recurring.DegradeLineItem,
		Service:        cfg.ServiceName,
	}
	jh := &httpx.JobsHandler{Runner: job, Zone: zone}
	jh.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // tutup inbox -> flush & close writer
	prodStatus.Close()
	cancel() // stop producer loop
	prod.WaitClosed()
	prodStatus.WaitClosed()
}
