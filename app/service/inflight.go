package service

import "sync"

// inflightGroup de-duplicates concurrent calls by key: a second caller for a
// key with a call in flight waits for that call's result instead of starting
// its own. Used so that a double-submitted checkout request creates one
// provider session, not two.
type inflightGroup struct {
	mu    sync.Mutex
	calls map[string]*inflightCall
}

type inflightCall struct {
	done   chan struct{}
	result string
	err    error
}

func (g *inflightGroup) do(key string, fn func() (string, error)) (string, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = map[string]*inflightCall{}
	}
	if call, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-call.done
		return call.result, call.err
	}

	call := &inflightCall{done: make(chan struct{})}
	g.calls[key] = call
	g.mu.Unlock()

	call.result, call.err = fn()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
	close(call.done)

	return call.result, call.err
}
