package main

import (
	"flag"
	"fmt"
	"log"

	"NewsEdge/internal/di"
	"NewsEdge/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// A .env file fills in gaps for local runs; the real environment
	// always wins.
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log.Printf("newsedge starting: env=%s backend=%s schedule=%q",
		cfg.Environment, cfg.Backend.Type, cfg.Pipeline.Schedule)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	log.Printf("clickhouse ready: db=%s", cfg.ClickHouse.Database)
	log.Printf("kafka ready: brokers=%v news_topic=%s signals_topic=%s",
		cfg.Kafka.Brokers, cfg.Kafka.NewsTopic, cfg.Kafka.SignalsTopic)

	return app.Run()
}
