package main

import (
	"context"
	"flag"
	"log"
	"time"

	"greenkart/internal/config"
	"greenkart/internal/dates"
	kafkax "greenkart/internal/kafka"
	"greenkart/internal/orders"
	"greenkart/internal/postgres"
	"greenkart/internal/recurring"
	"greenkart/internal/redisx"
	"greenkart/internal/subscriptions"

	"github.com/joho/godotenv"
)

// jobrunner runs the recurring-order job once and exits. It is meant to be
// invoked by cron; a nonzero exit hands retry to the scheduler.
func main() {
	_ = godotenv.Load()

	dateFlag := flag.String("date", "", "target date YYYY-MM-DD (default: today, delivery timezone)")
	timeout := flag.Duration("timeout", 5*time.Minute, "wall-clock budget for the run")
	flag.Parse()

	cfg := config.Load()
	zone := dates.LoadZone(cfg.Timezone)

	target := time.Now().In(zone)
	if *dateFlag != "" {
		t, err := time.ParseInLocation("2006-01-02", *dateFlag, zone)
		if err != nil {
			log.Fatalf("invalid -date: %v", err)
		}
		target = t
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prodCtx, prodCancel := context.WithCancel(context.Background())
	prod.Start(prodCtx)

	job := &recurring.Job{
		Store:          recurring.PGStore{Orders: &orders.Repo{DB: db}, Subs: &subscriptions.Repo{DB: db}},
		Producer:       prod,
		Redis:          rdb,
		Zone:           zone,
		ChunkSize:      cfg.LookupChunkSize,
		MissingProduct: recurring.DegradeLineItem,
		Service:        cfg.ServiceName + "-jobrunner",
	}

	sum, err := job.Run(ctx, target)

	// flush events sebelum exit
	prod.Close()
	prodCancel()
	prod.WaitClosed()

	if err != nil {
		log.Fatalf("recurring orders run failed: %v", err)
	}
	log.Printf("done: ordersCreated=%d skipped=%d errors=%d", sum.OrdersCreated, sum.Skipped, sum.Errors)
}
