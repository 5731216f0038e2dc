// FILE: logship/src/cmd/logship/signal.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalHandler waits for termination signals
type SignalHandler struct {
	sigChan chan os.Signal
}

// NewSignalHandler registers for SIGINT and SIGTERM
func NewSignalHandler() *SignalHandler {
	sh := &SignalHandler{
		sigChan: make(chan os.Signal, 1),
	}
	signal.Notify(sh.sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sh
}

// Wait returns the received signal, or nil when ctx ends or the input is exhausted
func (sh *SignalHandler) Wait(ctx context.Context, inputDone <-chan struct{}) os.Signal {
	select {
	case sig := <-sh.sigChan:
		return sig
	case <-inputDone:
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Stop cleans up signal handling
func (sh *SignalHandler) Stop() {
	signal.Stop(sh.sigChan)
}
