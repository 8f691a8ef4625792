package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"testing"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator(rand.Reader)

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator(rand.Reader)

	for _, prefix := range []string{SessionPrefix, MessagePrefix, RequestPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, id)
		}

		parts := strings.Split(id, "_")
		if len(parts) != 2 || len(parts[1]) != 26 {
			t.Errorf("ID should have format 'prefix_ulid', got: %s", id)
		}
	}
}

func TestTypedGenerators(t *testing.T) {
	if !strings.HasPrefix(NewSessionID().String(), "sess_") {
		t.Error("session id should carry sess_ prefix")
	}
	if !strings.HasPrefix(NewMessageID().String(), "msg_") {
		t.Error("message id should carry msg_ prefix")
	}
	if !strings.HasPrefix(NewRequestID().String(), "req_") {
		t.Error("request id should carry req_ prefix")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator(rand.Reader)

	const n = 100
	var wg sync.WaitGroup
	ids := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- gen.GenerateWithPrefix(MessagePrefix)
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
