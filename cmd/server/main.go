package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	_ "github.com/lib/pq"
	"github.com/npezzotti/go-chatserver/internal/config"
	"github.com/npezzotti/go-chatserver/internal/database"
	"github.com/npezzotti/go-chatserver/internal/server"
	"github.com/npezzotti/go-chatserver/internal/stats"
)

var configPath string

func main() {
	flag.StringVar(&configPath, "config", "config.properties", "path to the properties file")
	flag.Parse()

	logger := log.New(os.Stderr, "[chatserver] ", log.LstdFlags)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("config: ", err)
	}

	db, err := database.NewPgChatRepository(cfg.DSN(), cfg.ImageHost)
	if err != nil {
		logger.Fatal("db open: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	mux := http.NewServeMux()
	statsUpdater := stats.NewStatsUpdater(mux)

	// the drain goroutine must be running before the server counts
	// its persisted rooms, or boot blocks once the channel fills
	statsUpdater.Run()
	defer statsUpdater.Stop()

	chatServer, err := server.NewChatServer(logger, db, statsUpdater)
	if err != nil {
		logger.Fatal("new chat server: ", err)
	}

	if cfg.DebugAddr != "" {
		go func() {
			logger.Printf("debug server listening on %q", cfg.DebugAddr)
			if err := http.ListenAndServe(cfg.DebugAddr, handlers.LoggingHandler(os.Stderr, mux)); err != nil {
				logger.Println("debug server:", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- chatServer.ListenAndServe(cfg.ListenAddr())
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
		chatServer.Shutdown()
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server: ", err)
		}
	}

	logger.Println("shutdown complete")
}
