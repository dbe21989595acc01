package service

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyShutdown returns a context cancelled on SIGINT or SIGTERM. A
// second signal bypasses the graceful path and kills the process.
func NotifyShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
			signal.Stop(ch)
			return
		}
		<-ch
		os.Exit(1)
	}()

	return ctx, cancel
}
