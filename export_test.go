package concurrent

import "github.com/panjf2000/ants/v2"

// Ants returns the underlying ants pool, nil for an inline pool.
func (p *Pool) Ants() *ants.Pool {
	if p == nil {
		return nil
	}
	return p.pool
}

// Limiter returns the processor's admission limiter.
func (p *Processor) Limiter() *Limiter {
	return p.limiter
}

// Tasks returns the processor's task registry.
func (p *Processor) Tasks() *TaskRegistry {
	return p.tasks
}

func (r *TaskRegistry) Start(m Method) TaskHandle {
	return r.start(m)
}

func (r *TaskRegistry) Finish(id string) {
	r.finish(id)
}
