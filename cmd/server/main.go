package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/racewire/pitlane/pkg/game"
	"github.com/racewire/pitlane/pkg/gateway"
	"github.com/racewire/pitlane/pkg/log"
	"github.com/racewire/pitlane/pkg/network"
	"github.com/racewire/pitlane/pkg/queue"
	"github.com/racewire/pitlane/pkg/sessions"
)

func main() {
	// .env values become defaults; flags still win.
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env")
	}

	port := flag.Int("port", envInt("PORT", 3001), "port to listen on")
	logLevel := flag.String("log-level", envStr("LOG_LEVEL", "info"), "log level")
	waitingDuration := flag.Duration("waiting-duration", envDuration("WAITING_DURATION", game.DefaultWaitingRoomDuration), "waiting room countdown")
	raceDuration := flag.Duration("race-duration", envDuration("RACE_DURATION", game.DefaultRaceDuration), "race length")
	coinCount := flag.Int("coin-count", envInt("COIN_COUNT", game.DefaultCoinCount), "coins laid out on the track")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commandQueue := queue.NewInMemoryQueue(10000)
	connectionEventQueue := queue.NewInMemoryQueue(1000)

	sessionManager := sessions.NewManager(connectionEventQueue)

	wsServer := network.NewWSServer(network.NewWSServerOptions{
		Port:         *port,
		Manager:      sessionManager,
		CommandQueue: commandQueue,
	})
	go func() {
		if err := wsServer.Start(ctx); err != nil {
			log.Error("Websocket server failed: %v", err)
			stop()
		}
	}()

	g := game.NewGame(game.NewGameOptions{
		Gateway:              gateway.NewWSGateway(sessionManager),
		CommandQueue:         commandQueue,
		ConnectionEventQueue: connectionEventQueue,
		Config: game.Config{
			WaitingRoomDuration: *waitingDuration,
			RaceDuration:        *raceDuration,
			CoinCount:           *coinCount,
		},
	})

	log.Info("Starting game loop")
	if err := g.Start(ctx); err != nil {
		log.Error("Game loop failed: %v", err)
		os.Exit(1)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
