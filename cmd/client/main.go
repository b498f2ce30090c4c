package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-relay/broker"
	"chat-relay/client"
	"chat-relay/internal"
	"chat-relay/rpc"
	"chat-relay/runtime/workers"
	"chat-relay/storage"
	"chat-relay/ui"
	"chat-relay/wire"
)

// Exit codes to provide meaningful status to the operating system or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, drives the prompt loop, and centralizes
// error reporting so deferred cleanup always executes before exit.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config validation: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Broker connection. Unreachable broker at startup is fatal.
	gateway, err := broker.Dial(config.BrokerURL, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		logger.Info("Closing broker connection...")
		_ = gateway.Close()
	}()

	registry := rpc.NewRegistry(logger)
	defer registry.Close()

	term := ui.NewTerminal(os.Stdout, !config.NoColor)

	// 3. Optional local transcript (BadgerDB)
	var transcript client.Transcript
	var transcriptRepo *storage.TranscriptRepository
	if config.TranscriptPath != "" {
		db, err := badger.Open(badger.DefaultOptions(config.TranscriptPath).WithLogger(nil))
		if err != nil {
			return exitRuntime, fmt.Errorf("transcript opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing transcript store...")
			_ = db.Close()
		}()
		transcriptRepo = storage.NewTranscriptRepository(db, logger)
		transcript = transcriptRepo
	}

	controller := client.NewController(gateway, registry, term, transcript, config.ReplyTimeout, logger)

	// 4. Lifetime broadcast subscriptions, one private queue each.
	messageDeliveries, err := workers.Subscribe(ctx, gateway, wire.MessagesExchange)
	if err != nil {
		return exitRuntime, fmt.Errorf("message subscription: %w", err)
	}
	presenceDeliveries, err := workers.Subscribe(ctx, gateway, wire.PresenceExchange)
	if err != nil {
		return exitRuntime, fmt.Errorf("presence subscription: %w", err)
	}

	supervisor := workers.NewSupervisor(logger).
		Add(workers.NewMessageListener(messageDeliveries, controller, logger)).
		Add(workers.NewPresenceListener(presenceDeliveries, controller, logger))
	go supervisor.Run(ctx)
	defer supervisor.Stop()

	// 5. Prompt loop.
	return prompt(ctx, controller, term, transcriptRepo)
}

func prompt(ctx context.Context, controller *client.Controller, term *ui.Terminal, transcript *storage.TranscriptRepository) (int, error) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println(`Commands: /connect <name>, /disconnect, /users, /recent, /quit. Anything else is sent.`)

	defer func() {
		if controller.Connected() {
			_ = controller.Disconnect(context.Background())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			if err := dispatch(ctx, line, controller, term, transcript); err != nil {
				if err == errQuit {
					return exitOK, nil
				}
				// Protocol-level failures already produced their sink
				// line; nothing else to do here.
				continue
			}
		}
	}
}

var errQuit = fmt.Errorf("quit requested")

func dispatch(ctx context.Context, line string, controller *client.Controller, term *ui.Terminal, transcript *storage.TranscriptRepository) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case line == "/quit":
		return errQuit
	case line == "/users":
		term.RenderUsers()
		return nil
	case line == "/recent":
		if transcript == nil {
			fmt.Println("No transcript store configured (set TRANSCRIPT_PATH).")
			return nil
		}
		messages, err := transcript.Recent(20)
		if err != nil {
			return err
		}
		for _, m := range messages {
			fmt.Printf("(%s) %s: %s\n", m.Time, m.Sender, m.Content)
		}
		return nil
	case line == "/disconnect":
		return controller.Disconnect(ctx)
	case strings.HasPrefix(line, "/connect "):
		name := strings.TrimSpace(strings.TrimPrefix(line, "/connect "))
		if name == "" {
			fmt.Println("Usage: /connect <name>")
			return nil
		}
		_, err := controller.Connect(ctx, name)
		return err
	default:
		return controller.SendMessage(ctx, line)
	}
}
