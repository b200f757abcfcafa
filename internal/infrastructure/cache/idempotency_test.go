package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Ledger-api/internal/infrastructure/cache"
)

func TestBegin_ReservaYRepite(t *testing.T) {
	s := cache.NewIdempotencyStore(time.Minute)
	fp := cache.Fingerprint("POST", "/api/transactions", []byte(`{"amount":"10"}`))

	out, _ := s.Begin("t1:k1", fp)
	assert.Equal(t, cache.Started, out)

	out, _ = s.Begin("t1:k1", fp)
	assert.Equal(t, cache.InProgress, out)

	s.Complete("t1:k1", fp, cache.Response{Status: 201, ContentType: "application/json", Body: []byte(`{"id":"x"}`)})
	out, resp := s.Begin("t1:k1", fp)
	assert.Equal(t, cache.Replay, out)
	assert.Equal(t, 201, resp.Status)
	assert.JSONEq(t, `{"id":"x"}`, string(resp.Body))
}

func TestBegin_OtraPeticionMismaClave(t *testing.T) {
	s := cache.NewIdempotencyStore(time.Minute)
	a := cache.Fingerprint("POST", "/api/transactions", []byte(`{"amount":"10"}`))
	b := cache.Fingerprint("POST", "/api/transactions", []byte(`{"amount":"11"}`))

	out, _ := s.Begin("k", a)
	assert.Equal(t, cache.Started, out)
	out, _ = s.Begin("k", b)
	assert.Equal(t, cache.Mismatch, out)
}

func TestRelease_PermiteReintentar(t *testing.T) {
	s := cache.NewIdempotencyStore(time.Minute)
	fp := cache.Fingerprint("POST", "/x", nil)
	s.Begin("k", fp)
	s.Release("k")
	out, _ := s.Begin("k", fp)
	assert.Equal(t, cache.Started, out)
}

func TestBegin_ConcurrenteUnSoloGanador(t *testing.T) {
	s := cache.NewIdempotencyStore(time.Minute)
	fp := cache.Fingerprint("POST", "/x", []byte("y"))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if out, _ := s.Begin("k", fp); out == cache.Started {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started)
}
