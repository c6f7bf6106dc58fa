package main

import (
	"flag"
	"log"
	"os"

	"FlowSentry/internal/di"
	"FlowSentry/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s symbols=%v", cfg.Environment, cfg.Symbols)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	log.Printf("kafka: brokers=%v candles=%s results=%s",
		cfg.Kafka.Brokers, cfg.Kafka.CandlesTopic, cfg.Kafka.ResultsTopic)

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
