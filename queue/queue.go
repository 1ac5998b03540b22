package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"

	"tcgscrape"

	"github.com/rs/zerolog/log"
)

// ErrQueueRunning is returned by Run when the queue is already consumed.
var ErrQueueRunning = errors.New("queue is already running")

// Storage is the interface of the queue's storage backend
// Storage must be concurrently safe for multiple goroutines.
// github.com/gocolly/redisstorage.Storage satisfies it.
type Storage interface {
	// Init initializes the storage
	Init() error
	// AddRequest adds a serialized job to the queue
	AddRequest([]byte) error
	// GetRequest pops the next job from the queue
	// or returns error if the queue is empty
	GetRequest() ([]byte, error)
	// QueueSize returns with the size of the queue
	QueueSize() (int, error)
}

// Job is one query waiting to be scraped.
type Job struct {
	// Seq orders results the way jobs were added
	Seq      int    `json:"seq"`
	Query    string `json:"query"`
	MaxPages int    `json:"max_pages"`
}

// Result pairs a job with the session it produced.
type Result struct {
	Job     Job
	Session *tcgscrape.Session
}

// Queue is a job queue which uses a Collector to run sessions
// in multiple threads. Pages of one session are still fetched in order.
type Queue struct {
	// Threads defines the number of consumer threads
	Threads int
	storage Storage
	mut     sync.Mutex // guards seq and running
	seq     int
	running bool
}

func New(threads int, s Storage) (*Queue, error) {
	if s == nil {
		s = NewInMemory(100000)
	}

	if err := s.Init(); err != nil {
		return nil, err
	}

	if threads < 1 {
		threads = 1
	}

	return &Queue{
		Threads: threads,
		storage: s,
	}, nil
}

// IsEmpty returns true if the queue is empty.
func (q *Queue) IsEmpty() bool {
	s, _ := q.Size()
	return s == 0
}

// Size returns the size of the queue
func (q *Queue) Size() (int, error) {
	return q.storage.QueueSize()
}

// AddQuery adds a query, maxPages < 1 uses the collector default.
func (q *Queue) AddQuery(query string, maxPages int) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return tcgscrape.ErrInvalidQuery
	}

	q.mut.Lock()
	q.seq++
	job := Job{Seq: q.seq, Query: query, MaxPages: maxPages}
	q.mut.Unlock()

	buf, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return q.storage.AddRequest(buf)
}

// Run consumes the queue until it is empty or ctx is done, and returns the
// results in the order jobs were added. Entries that cannot be decoded are
// skipped.
func (q *Queue) Run(ctx context.Context, c *tcgscrape.Collector) ([]Result, error) {
	q.mut.Lock()
	if q.running {
		q.mut.Unlock()
		return nil, ErrQueueRunning
	}

	q.running = true
	q.mut.Unlock()

	defer func() {
		q.mut.Lock()
		q.running = false
		q.mut.Unlock()
	}()

	jobs := make(chan Job)
	results := make(chan Result)

	var wg sync.WaitGroup

	for i := 0; i < q.Threads; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			independentRunner(ctx, c, jobs, results)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var loopErr error

	go func() {
		defer close(jobs)
		loopErr = q.loop(ctx, jobs)
	}()

	out := make([]Result, 0)
	for r := range results {
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Job.Seq < out[j].Job.Seq
	})

	return out, loopErr
}

func (q *Queue) loop(ctx context.Context, jobs chan<- Job) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		size, err := q.storage.QueueSize()
		if err != nil {
			return err
		}

		if size == 0 {
			return nil
		}

		job, err := q.loadJob()
		if err != nil {
			log.Warn().Err(err).Msg("skip queue entry")
			continue
		}

		select {
		case jobs <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *Queue) loadJob() (Job, error) {
	var job Job

	buf, err := q.storage.GetRequest()
	if err != nil {
		return job, err
	}

	if buf == nil {
		return job, errEmptyEntry
	}

	copied := make([]byte, len(buf))
	copy(copied, buf)

	if err := json.Unmarshal(copied, &job); err != nil {
		return job, err
	}

	if job.Query == "" {
		return job, errEmptyEntry
	}

	return job, nil
}

var errEmptyEntry = errors.New("empty queue entry")

func independentRunner(ctx context.Context, c *tcgscrape.Collector, jobs <-chan Job, results chan<- Result) {
	for job := range jobs {
		results <- Result{
			Job:     job,
			Session: c.Run(ctx, job.Query, job.MaxPages),
		}
	}
}
