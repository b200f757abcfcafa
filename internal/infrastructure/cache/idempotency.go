package cache

import (
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/blake2b"
)

// Response respuesta HTTP guardada para una Idempotency-Key.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

type record struct {
	fingerprint string
	done        bool
	resp        Response
}

// Outcome resultado de Begin.
type Outcome int

const (
	// Started la clave es nueva y quedó reservada para esta petición.
	Started Outcome = iota
	// Replay la clave ya tiene respuesta para la misma petición.
	Replay
	// InProgress otra petición con la misma clave no ha terminado.
	InProgress
	// Mismatch la clave se usó con otra petición.
	Mismatch
)

// IdempotencyStore registro en memoria de claves de idempotencia con TTL.
type IdempotencyStore struct {
	c   *gocache.Cache
	ttl time.Duration
}

// NewIdempotencyStore crea el registro; ttl <= 0 usa 24h.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{c: gocache.New(ttl, ttl/2), ttl: ttl}
}

// Fingerprint resume método, ruta y cuerpo de la petición.
func Fingerprint(method, path string, body []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Begin reserva la clave o devuelve la respuesta guardada.
func (s *IdempotencyStore) Begin(key, fingerprint string) (Outcome, Response) {
	if err := s.c.Add(key, &record{fingerprint: fingerprint}, s.ttl); err == nil {
		return Started, Response{}
	}
	v, ok := s.c.Get(key)
	if !ok {
		// expiró entre Add y Get
		return s.Begin(key, fingerprint)
	}
	rec := v.(*record)
	switch {
	case rec.fingerprint != fingerprint:
		return Mismatch, Response{}
	case !rec.done:
		return InProgress, Response{}
	default:
		return Replay, rec.resp
	}
}

// Complete guarda la respuesta de una clave reservada.
func (s *IdempotencyStore) Complete(key, fingerprint string, resp Response) {
	s.c.Set(key, &record{fingerprint: fingerprint, done: true, resp: resp}, s.ttl)
}

// Release libera la reserva sin guardar respuesta (errores de servidor: el cliente puede reintentar).
func (s *IdempotencyStore) Release(key string) {
	s.c.Delete(key)
}
