package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dicehall/internal/config"
	"dicehall/internal/server"
)

func main() {
	envFile := flag.String("env", "", "path to .env file (default: .env)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	cfg.LogConfig()

	log.Println("dicehall starting up...")

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	runErr := make(chan error, 1)
	go func() {
		runErr <- srv.Run()
	}()

	select {
	case sig := <-sigChan:
		log.Printf("received signal: %v", sig)
		srv.Shutdown(time.Duration(cfg.ShutdownTimeoutSecs) * time.Second)
	case err := <-runErr:
		if err != nil {
			log.Printf("server exited with error: %v", err)
		}
		return
	}

	log.Println("dicehall offline.")
}
