package workers

// Workers aggregates background workers so the application can start them all
// with a single call.
type Workers struct {
	workers []Worker
}

// New collects the given workers into an aggregate.
func New(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Run starts every registered worker in registration order.
func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}
