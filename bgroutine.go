package main

import (
	"log"
	"sync"
)

// startBackgroundRoutine runs workfn until the returned stop function is
// called, stop waits for workfn to return.
func startBackgroundRoutine(name string, workfn func(<-chan struct{})) func() {
	log.Printf("Starting %s routine", name)
	closechan := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		workfn(closechan)
		wg.Done()
	}()
	return sync.OnceFunc(func() {
		log.Printf("Shutting down %s routine", name)
		close(closechan)
		log.Printf("Waiting for routine %s to exit", name)
		wg.Wait()
		log.Printf("Routine %s done", name)
	})
}
