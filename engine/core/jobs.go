package core

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

/**
 * @brief A unit of work for the job system. OnComplete or OnFailure runs on
 * the worker after Run returns.
 */
type Job struct {
	Name       string
	Run        func() error
	OnComplete func()
	OnFailure  func(err error)
}

// JobSystem runs submitted jobs on a fixed number of worker goroutines.
type JobSystem struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup

	pending sync.WaitGroup
	mutex   sync.Mutex
	errs    []error
}

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, channelSize),
	}
	js.start()
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job Job) {
	defer js.pending.Done()

	if err := job.Run(); err != nil {
		LogError("job '%s' failed: %s", job.Name, err)
		js.mutex.Lock()
		js.errs = append(js.errs, fmt.Errorf("%s: %w", job.Name, err))
		js.mutex.Unlock()
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full.
 */
func (js *JobSystem) Submit(job Job) {
	js.pending.Add(1)
	js.jobQueue <- job
}

// Wait blocks until every submitted job has finished and returns the joined
// errors of the failed ones. The error list is cleared.
func (js *JobSystem) Wait() error {
	js.pending.Wait()

	js.mutex.Lock()
	defer js.mutex.Unlock()
	err := errors.Join(js.errs...)
	js.errs = nil
	return err
}

/**
 * @brief Shuts the job system down after the queued jobs have run.
 */
func (js *JobSystem) Shutdown() {
	close(js.jobQueue)
	js.wg.Wait()
}
