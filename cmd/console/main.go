package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/navboard/navboard/internal/adapters/backend"
	"github.com/navboard/navboard/internal/adapters/stream"
	"github.com/navboard/navboard/internal/board"
	"github.com/navboard/navboard/internal/pkg/config"
	"github.com/navboard/navboard/internal/pkg/logging"
)

// console is a terminal control board: map clicks, drags and toolbar actions
// are typed as commands, and the backend's log and pose stream is rendered
// into the console pane.
func main() {
	cfg, err := config.Load("navboard-console")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.SetupTo(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := board.New(backend.New(cfg.Board.BackendURL, nil), board.Config{
		Start:          cfg.Robot.Start(),
		RequestTimeout: cfg.Board.Timeout(),
		ConsoleHistory: cfg.Board.ConsoleHistory,
		ConsoleHeight:  cfg.Board.ConsoleHeight,
		ConsoleOut:     os.Stdout,
	})

	boardDone := make(chan error, 1)
	go func() { boardDone <- b.Run(ctx) }()

	events := stream.New(stream.URLFor(cfg.Board.BackendURL))
	go func() {
		if err := events.Run(ctx, b.HandleFrame); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("event stream stopped", "error", err)
		}
	}()

	// Keepout zones are shown at startup.
	if err := b.ToggleKeepout(); err != nil {
		log.Fatalf("keepout: %v", err)
	}

	r := &repl{board: b, out: os.Stdout, robotStep: cfg.Robot.Delta()}
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	fmt.Fprint(os.Stdout, prompt)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			quit, err := r.exec(line)
			if err != nil {
				fmt.Fprintln(os.Stdout, "error:", err)
			}
			if quit {
				break loop
			}
			fmt.Fprint(os.Stdout, prompt)
		}
	}

	stop()
	_ = b.Wait()
	if err := <-boardDone; err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("board stopped", "error", err)
	}
}
