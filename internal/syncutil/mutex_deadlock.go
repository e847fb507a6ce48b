//go:build deadlock

// Package syncutil provides the mutex used to serialise bus transactions.
// Building with -tags=deadlock swaps in github.com/sasha-s/go-deadlock so a
// transaction left holding the bus is reported instead of hanging silently.
package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// Mutex is a deadlock-detecting mutex.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex is a deadlock-detecting reader/writer mutex.
type RWMutex struct {
	deadlock.RWMutex
}
