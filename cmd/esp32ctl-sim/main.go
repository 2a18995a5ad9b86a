package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/eriksl/esp32ctl"
	"github.com/eriksl/esp32ctl/internal/constants"
	"github.com/eriksl/esp32ctl/internal/logging"
	"github.com/eriksl/esp32ctl/internal/transport"
)

func main() {
	logConfig := logging.DefaultConfig()
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller := esp32ctl.New(&esp32ctl.Options{
		Context: ctx,
		Logger:  logger,
	})

	tcp := transport.NewTCP(controller, logger, controller.Metrics())
	controller.Attach(tcp)
	if err := tcp.Listen(ctx); err != nil {
		logger.Error("failed to start tcp transport", "error", err)
		os.Exit(1)
	}

	console := transport.NewConsole(controller, logger, controller.Metrics(), os.Stdin, os.Stdout)
	controller.Attach(console)
	if err := console.Listen(ctx); err != nil {
		logger.Error("failed to start console transport", "error", err)
		os.Exit(1)
	}

	controller.Start()

	logger.Info("esp32ctl simulator started", "tcp_port", constants.TCPServicePort)
	fmt.Printf("esp32ctl simulator listening on tcp port %d\n", constants.TCPServicePort)
	fmt.Printf("console is live on this terminal\n")
	fmt.Printf("Press Ctrl+C to stop...\n")
	fmt.Printf("Send SIGUSR1 (kill -USR1 %d) to dump goroutine stacks\n", os.Getpid())

	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			logger.Info("=== GOROUTINE STACK TRACE DUMP ===")
			buf := make([]byte, 1024*1024)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "\n=== FULL GOROUTINE STACK DUMP ===\n")
			fmt.Fprintf(os.Stderr, "%s\n", buf[:n])
			fmt.Fprintf(os.Stderr, "=== END STACK DUMP ===\n\n")

			filename := fmt.Sprintf("esp32ctl-stacks-%d.txt", time.Now().Unix())
			if f, err := os.Create(filename); err == nil {
				fmt.Fprintf(f, "Goroutine stack dump at %s\n", time.Now().Format(time.RFC3339))
				fmt.Fprintf(f, "Process ID: %d\n\n", os.Getpid())
				f.Write(buf[:n])

				fmt.Fprintf(f, "\n\n=== GOROUTINE PROFILE ===\n")
				pprof.Lookup("goroutine").WriteTo(f, 2)

				f.Close()
				logger.Info("stack trace written to file", "file", filename)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
	cancel()

	cleanupDone := make(chan bool)
	go func() {
		tcp.Close()
		console.Close()
		controller.Stop()
		cleanupDone <- true
	}()

	select {
	case <-cleanupDone:
	case <-time.After(1 * time.Second):
		logger.Info("cleanup timeout, forcing exit")
	}

	os.Exit(0)
}
