package process

import (
	"sync"
	"testing"
)

func TestKeyedLocksSerializesSameKey(t *testing.T) {
	locks := newKeyedLocks()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("book-1")
			defer locks.Unlock("book-1")

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxActive)
	}
}

func TestKeyedLocksIndependentKeys(t *testing.T) {
	locks := newKeyedLocks()

	locks.Lock("book-1")
	done := make(chan struct{})
	go func() {
		locks.Lock("book-2")
		locks.Unlock("book-2")
		close(done)
	}()
	<-done
	locks.Unlock("book-1")
}

func TestKeyedLocksDropsIdleEntries(t *testing.T) {
	locks := newKeyedLocks()
	locks.Lock("book-1")
	locks.Unlock("book-1")

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.entries) != 0 {
		t.Fatalf("expected entry table to be empty, got %d entries", len(locks.entries))
	}
}
