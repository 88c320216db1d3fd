package renderer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/output"
)

// RowTask represents a scanline rendering task for the worker pool
type RowTask struct {
	Row int // Output row, 0 is the top of the image
}

// RowResult contains the result from rendering a row
type RowResult struct {
	Row    int
	Pixels []output.Pixel
	Stats  []PixelStats
}

// WorkerPool manages parallel row rendering. Each worker owns its sampler,
// so nothing mutable is shared between workers.
type WorkerPool struct {
	taskQueue   chan RowTask
	resultQueue chan RowResult
	workers     []*Worker
	numWorkers  int
	group       *errgroup.Group
}

// Worker handles individual row rendering tasks
type Worker struct {
	ID          int
	raytracer   *Raytracer
	sampler     *core.RandomSampler
	taskQueue   chan RowTask
	resultQueue chan RowResult
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// Queues are sized for numRows so submitting never blocks.
func NewWorkerPool(raytracer *Raytracer, numRows, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan RowTask, numRows),
		resultQueue: make(chan RowResult, numRows),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			raytracer:   raytracer,
			sampler:     core.NewSeededSampler(raytracer.config.Seed),
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers. Cancelling ctx stops them after their current row.
func (wp *WorkerPool) Start(ctx context.Context) {
	group, groupCtx := errgroup.WithContext(ctx)
	wp.group = group
	for _, worker := range wp.workers {
		w := worker
		group.Go(func() error {
			return w.run(groupCtx)
		})
	}
}

// Stop closes the task queue, waits for the workers to drain it and closes
// the result queue. It returns the first worker error.
func (wp *WorkerPool) Stop() error {
	close(wp.taskQueue)
	err := wp.group.Wait()
	close(wp.resultQueue)
	return err
}

// SubmitTask submits a row task to the worker pool
func (wp *WorkerPool) SubmitTask(task RowTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed row result. Results arrive in completion
// order, not row order.
func (wp *WorkerPool) GetResult() (RowResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// RejectionFallbacks sums the rejection-sampler fallbacks of every worker.
// Call it after Stop.
func (wp *WorkerPool) RejectionFallbacks() uint64 {
	var total uint64
	for _, w := range wp.workers {
		total += w.sampler.Fallbacks()
	}
	return total
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context) error {
	for task := range w.taskQueue {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Reseeding per row makes the output independent of which worker
		// picked up the row
		w.sampler.Seed(w.raytracer.config.Seed + int64(task.Row))
		stats := w.raytracer.RenderRow(task.Row, w.sampler)

		pixels := make([]output.Pixel, len(stats))
		for i := range stats {
			pixels[i] = ToneMap(stats[i].ColorAccum, stats[i].SampleCount)
		}

		w.resultQueue <- RowResult{
			Row:    task.Row,
			Pixels: pixels,
			Stats:  stats,
		}
	}
	return nil
}
