package state

import (
	"sync"

	"github.com/jhoicas/ventas-xp/pkg/logger"
)

// Listener recibe el estado posterior a cada acción aplicada.
// Se invoca fuera del lock; puede despachar nuevas acciones.
type Listener func(s State, a Action)

// Store contenedor autoritativo del estado. Todas las mutaciones pasan por Dispatch/ApplyAt.
//
// El epoch avanza con cada cambio de sesión (o Invalidate). Las operaciones asíncronas
// capturan el epoch al empezar y aplican sus resultados con ApplyAt, que los descarta
// si el epoch cambió entretanto.
type Store struct {
	mu        sync.Mutex
	state     State
	epoch     uint64
	listeners map[int]Listener
	nextID    int
	log       *logger.Logger
}

// NewStore construye el store con el estado inicial.
func NewStore(log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		state:     Initial(),
		listeners: make(map[int]Listener),
		log:       log.Component("store"),
	}
}

// State devuelve la instantánea actual.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Epoch devuelve la generación actual.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Current devuelve la instantánea y el epoch leídos juntos.
func (s *Store) Current() (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.epoch
}

// Invalidate avanza el epoch, dejando obsoletas las operaciones en curso.
func (s *Store) Invalidate() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

// Dispatch aplica la acción y notifica a los listeners.
func (s *Store) Dispatch(a Action) State {
	next, _ := s.dispatch(a)
	return next
}

// DispatchEpoch como Dispatch, pero devuelve el epoch vigente justo después de aplicar la acción.
func (s *Store) DispatchEpoch(a Action) uint64 {
	_, epoch := s.dispatch(a)
	return epoch
}

func (s *Store) dispatch(a Action) (State, uint64) {
	s.mu.Lock()
	if _, ok := a.(SetSession); ok {
		s.epoch++
	}
	s.state = Reduce(s.state, a)
	next, epoch := s.state, s.epoch
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.log.Trace().Str("action", a.Type()).Msg("acción aplicada")
	notify(listeners, next, a)
	return next, epoch
}

// ApplyAt aplica todas las acciones de forma atómica si epoch sigue vigente.
// Devuelve false (sin cambios) si el epoch quedó obsoleto.
func (s *Store) ApplyAt(epoch uint64, actions ...Action) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		current := s.epoch
		s.mu.Unlock()
		s.log.Debug().Uint64("epoch", epoch).Uint64("current", current).Msg("resultado obsoleto descartado")
		return false
	}
	next := s.state
	for _, a := range actions {
		if _, ok := a.(SetSession); ok {
			s.epoch++
		}
		next = Reduce(next, a)
	}
	s.state = next
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, a := range actions {
		notify(listeners, next, a)
	}
	return true
}

// Subscribe registra un listener; la función devuelta lo da de baja.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if l, ok := s.listeners[i]; ok {
			out = append(out, l)
		}
	}
	return out
}

func notify(listeners []Listener, st State, a Action) {
	for _, l := range listeners {
		l(st, a)
	}
}
