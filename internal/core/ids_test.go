package core

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewID_Format(t *testing.T) {
	before := time.Now().UnixMilli()
	id := NewID()
	after := time.Now().UnixMilli()

	for _, r := range id {
		if !strings.ContainsRune(idAlphabet, r) {
			t.Fatalf("NewID() = %q contains %q outside base 36", id, r)
		}
	}
	if len(id) <= idRandomLen {
		t.Fatalf("NewID() = %q is too short", id)
	}

	prefix := id[:len(id)-idRandomLen]
	ms, err := strconv.ParseInt(prefix, 36, 64)
	if err != nil {
		t.Fatalf("timestamp prefix %q: %v", prefix, err)
	}
	if ms < before || ms > after {
		t.Errorf("timestamp prefix = %d, want within [%d, %d]", ms, before, after)
	}
}

func TestNewID_Unique(t *testing.T) {
	const perWorker = 2000
	const workers = 8

	var (
		mu   sync.Mutex
		seen = make(map[string]bool, perWorker*workers)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, perWorker)
			for i := range local {
				local[i] = NewID()
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				if seen[id] {
					t.Errorf("duplicate id %q", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()
}

func TestSequentialIDs(t *testing.T) {
	next := SequentialIDs("rec")
	for i, want := range []string{"rec-1", "rec-2", "rec-3"} {
		if got := next(); got != want {
			t.Errorf("call %d = %q, want %q", i+1, got, want)
		}
	}
}
