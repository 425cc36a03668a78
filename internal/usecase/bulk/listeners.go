package bulk

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kailas-cloud/marketgate/internal/domain/batch"
)

// listeners is the registry of batch-completion callbacks, keyed by handle
// so removing one registration never touches another.
type listeners struct {
	mu  sync.RWMutex
	fns map[uuid.UUID]func(batch.Result)
}

func newListeners() *listeners {
	return &listeners{fns: make(map[uuid.UUID]func(batch.Result))}
}

func (l *listeners) add(fn func(batch.Result)) *CompletionListener {
	id := uuid.New()
	l.mu.Lock()
	l.fns[id] = fn
	l.mu.Unlock()
	return &CompletionListener{owner: l, id: id}
}

func (l *listeners) remove(id uuid.UUID) {
	l.mu.Lock()
	delete(l.fns, id)
	l.mu.Unlock()
}

func (l *listeners) emit(res batch.Result) {
	l.mu.RLock()
	fns := make([]func(batch.Result), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(res)
	}
}
