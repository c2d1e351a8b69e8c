package main

import (
	"context"
	"log"
)

// broadcastWorker receives SimStatus snapshots and fans out to multiple downstream workers
// This implements the actor pattern where the broadcast logic is isolated in a single worker
func broadcastWorker(ctx context.Context, inputChan <-chan SimStatus, outputChans []chan<- SimStatus) {
	for {
		select {
		case status := <-inputChan:
			// Fan out to all downstream workers using non-blocking sends
			for i, ch := range outputChans {
				select {
				case ch <- status:
					// Successfully sent
				case <-ctx.Done():
					return
				default:
					// Channel full, log warning but continue
					log.Printf("Warning: downstream worker %d channel full, dropping snapshot\n", i)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
