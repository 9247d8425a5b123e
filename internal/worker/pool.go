package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueNotificaciones = "jobs:notificaciones"

	JobNotificacion = "notificacion"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EncolarNotificacion pushes an order notification job to Redis.
func (d *Dispatcher) EncolarNotificacion(ctx context.Context, payload NotificacionPayload) error {
	return d.enqueue(ctx, QueueNotificaciones, JobNotificacion, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// JobHandler processes one job payload. A returned error makes the pool retry
// the job until maxIntentos, then move it to the DLQ.
type JobHandler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// WorkerHandlers maps job types to their handler.
type WorkerHandlers struct {
	Notificacion JobHandler
}

func (h *WorkerHandlers) handlerFor(jobType string) JobHandler {
	switch jobType {
	case JobNotificacion:
		return h.Notificacion
	}
	return nil
}

// errPermanente marks failures that retrying cannot fix.
var errPermanente = errors.New("fallo permanente")

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb         *redis.Client
	handlers    *WorkerHandlers
	maxIntentos int
	wg          sync.WaitGroup
}

// StartWorkerPool launches numWorkers goroutines consuming the queues.
// Each goroutine blocks on BRPOP, zero CPU when idle. Cancel ctx and call
// Wait to drain.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers, maxIntentos int) *Pool {
	if maxIntentos < 1 {
		maxIntentos = 1
	}
	p := &Pool{rdb: rdb, handlers: handlers, maxIntentos: maxIntentos}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
	return p
}

// Wait blocks until every worker goroutine returned.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	queues := []string{QueueNotificaciones}
	for {
		if ctx.Err() != nil {
			log.Info().Msgf("worker %d shutting down", id)
			return
		}
		// Blocking pop: waits up to 5s then loops to check ctx
		result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
		if err != nil || len(result) < 2 {
			continue // timeout or context cancelled
		}
		p.processJob(ctx, result[0], result[1])
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		// keep the unparseable body as a JSON string
		quoted, _ := json.Marshal(raw)
		enviarADLQ(ctx, p.rdb, queue, Job{Type: "desconocido", Payload: quoted}, err.Error())
		return
	}

	h := p.handlers.handlerFor(job.Type)
	if h == nil {
		enviarADLQ(ctx, p.rdb, queue, job, "tipo de job sin handler")
		return
	}

	err := h.Process(ctx, job.Payload)
	job.Attempts++
	switch siguientePaso(err, job.Attempts, p.maxIntentos) {
	case pasoListo:
		log.Debug().Str("type", job.Type).Int("attempts", job.Attempts).Msg("job processed")
	case pasoReintentar:
		log.Warn().Err(err).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, requeueing")
		if perr := push(ctx, p.rdb, queue, job); perr != nil {
			log.Error().Err(perr).Str("queue", queue).Msg("failed to requeue job")
		}
	case pasoDLQ:
		enviarADLQ(ctx, p.rdb, queue, job, err.Error())
	}
}

type paso int

const (
	pasoListo paso = iota
	pasoReintentar
	pasoDLQ
)

// siguientePaso decides what happens to a job after an attempt.
func siguientePaso(err error, attempts, maxIntentos int) paso {
	switch {
	case err == nil:
		return pasoListo
	case errors.Is(err, errPermanente), attempts >= maxIntentos:
		return pasoDLQ
	default:
		return pasoReintentar
	}
}
