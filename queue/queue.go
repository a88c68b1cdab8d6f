// Package queue is a small redis backed task queue. Jobs are json
// blobs on a list, consumed with BRPOP by a worker pool. A job may
// carry a dedupe key: while the key is held, enqueueing the same key
// is a no-op, which keeps periodic scans from piling up duplicate
// settlement jobs for one bridge.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"

	"github.com/Jayke770/stablebot-worker/log"
)

var pool *redis.Pool

// ErrNotInitialized queue used before Init
var ErrNotInitialized = errors.New("queue: redis pool not initialized")

// ErrRetryNow returned by a handler to requeue the job immediately
// instead of waiting for the next periodic scan.
var ErrRetryNow = errors.New("queue: retry now")

func timeoutDialOptions(password string, dbIndex int) []redis.DialOption {
	options := []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(10 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
		redis.DialDatabase(dbIndex),
	}
	if password != "" {
		options = append(options, redis.DialPassword(password))
	}
	return options
}

// Init dial the redis pool
func Init(addr, password string, dbIndex int) {
	pool = &redis.Pool{
		MaxIdle:     5,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr, timeoutDialOptions(password, dbIndex)...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// Job one queued task
type Job struct {
	ID         string          `json:"id"`
	Task       string          `json:"task"`
	Key        string          `json:"key,omitempty"` // dedupe key, empty means no dedupe
	Payload    json.RawMessage `json:"payload,omitempty"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt int64           `json:"enqueuedAt"`
}

// Bind unmarshal the job payload into v
func (j *Job) Bind(v interface{}) error {
	return json.Unmarshal(j.Payload, v)
}

// Queue a named task queue
type Queue struct {
	name string
}

// New returns the queue of the given name.
func New(name string) *Queue {
	return &Queue{name: name}
}

func (q *Queue) listKey() string {
	return fmt.Sprintf("queue:%s", q.name)
}

func (q *Queue) dedupeKey() string {
	return fmt.Sprintf("queue:%s:keys", q.name)
}

// Enqueue push a job. When key is non empty and already held the job is
// dropped and added reports false. The key stays held until Ack, so a
// job in flight also blocks duplicates.
func (q *Queue) Enqueue(task, key string, payload interface{}) (added bool, err error) {
	if pool == nil {
		return false, ErrNotInitialized
	}
	// marshal before reserving the key so a bad payload never leaves a
	// reservation behind
	job := &Job{
		ID:         uuid.New().String(),
		Task:       task,
		Key:        key,
		EnqueuedAt: time.Now().Unix(),
	}
	if payload != nil {
		job.Payload, err = json.Marshal(payload)
		if err != nil {
			return false, err
		}
	}
	blob, err := json.Marshal(job)
	if err != nil {
		return false, err
	}

	conn := pool.Get()
	defer conn.Close()

	if key != "" {
		reserved, err := redis.Int(conn.Do("SADD", q.dedupeKey(), key))
		if err != nil {
			return false, err
		}
		if reserved == 0 {
			return false, nil
		}
	}
	if _, err = conn.Do("LPUSH", q.listKey(), blob); err != nil {
		// release the reservation, a held key with no job behind it
		// would block its bridge until the key store is wiped
		if key != "" {
			if _, remErr := conn.Do("SREM", q.dedupeKey(), key); remErr != nil {
				log.Warn("queue release dedupe key failed", "queue", q.name, "key", key, "err", remErr)
			}
		}
		return false, err
	}
	return true, nil
}

// Has reports whether the dedupe key is currently held.
func (q *Queue) Has(key string) (bool, error) {
	if pool == nil {
		return false, ErrNotInitialized
	}
	conn := pool.Get()
	defer conn.Close()
	return redis.Bool(conn.Do("SISMEMBER", q.dedupeKey(), key))
}

// Ack release the dedupe key of a finished job.
func (q *Queue) Ack(job *Job) error {
	if job.Key == "" {
		return nil
	}
	conn := pool.Get()
	defer conn.Close()
	_, err := conn.Do("SREM", q.dedupeKey(), job.Key)
	return err
}

// Requeue push the job back keeping its dedupe key held, used when a
// task wants an immediate retry instead of waiting for the next scan.
func (q *Queue) Requeue(job *Job) error {
	conn := pool.Get()
	defer conn.Close()
	job.Attempts++
	blob, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = conn.Do("LPUSH", q.listKey(), blob)
	return err
}

// dequeue block up to timeout for the next job, nil when none arrived
func (q *Queue) dequeue(timeout time.Duration) (*Job, error) {
	conn := pool.Get()
	defer conn.Close()

	values, err := redis.Values(conn.Do("BRPOP", q.listKey(), int(timeout.Seconds())))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, nil
		}
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("queue: unexpected BRPOP reply of %d values", len(values))
	}
	blob, err := redis.Bytes(values[1], nil)
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(blob, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Handler processes one job. A returned error releases the dedupe key
// without requeueing, the periodic scan picks the work up again.
type Handler func(job *Job) error

// StartWorkers run n consumer goroutines until stop is closed.
func (q *Queue) StartWorkers(n int, handler Handler, stop <-chan struct{}) {
	for i := 0; i < n; i++ {
		go q.workLoop(handler, stop)
	}
	log.Info("queue workers started", "queue", q.name, "workers", n)
}

func (q *Queue) workLoop(handler Handler, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		job, err := q.dequeue(5 * time.Second)
		if err != nil {
			log.Warn("queue dequeue failed", "queue", q.name, "err", err)
			time.Sleep(1 * time.Second)
			continue
		}
		if job == nil {
			continue
		}
		err = handler(job)
		if errors.Is(err, ErrRetryNow) {
			if err := q.Requeue(job); err != nil {
				log.Warn("queue requeue failed", "queue", q.name, "key", job.Key, "err", err)
			}
			continue
		}
		if err != nil {
			log.Warn("queue job failed", "queue", q.name, "task", job.Task, "key", job.Key, "attempts", job.Attempts, "err", err)
		}
		if err := q.Ack(job); err != nil {
			log.Warn("queue ack failed", "queue", q.name, "key", job.Key, "err", err)
		}
	}
}
