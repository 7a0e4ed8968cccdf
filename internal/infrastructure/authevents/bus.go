// Package authevents reparte los cambios de estado de autenticación a los suscriptores.
package authevents

import (
	"sync"

	"github.com/jhoicas/ventas-xp/internal/domain/entity"
	"github.com/jhoicas/ventas-xp/internal/domain/repository"
)

// Bus registro de listeners. Emit invoca a cada uno en orden de suscripción, fuera del lock.
type Bus struct {
	mu        sync.Mutex
	next      int
	order     []int
	listeners map[int]repository.AuthListener
}

// Subscribe registra l; la función devuelta lo da de baja.
func (b *Bus) Subscribe(l repository.AuthListener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners == nil {
		b.listeners = make(map[int]repository.AuthListener)
	}
	id := b.next
	b.next++
	b.listeners[id] = l
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
		})
	}
}

// Emit notifica el evento.
func (b *Bus) Emit(event entity.AuthEvent, sess *entity.Session) {
	b.mu.Lock()
	ls := make([]repository.AuthListener, 0, len(b.listeners))
	for _, id := range b.order {
		if l, ok := b.listeners[id]; ok {
			ls = append(ls, l)
		}
	}
	b.mu.Unlock()

	for _, l := range ls {
		l(event, sess)
	}
}
