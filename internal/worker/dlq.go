package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Jobs that fail permanently or run out of attempts end up in dlq:<queue>
// for manual inspection. Nothing consumes these lists.
const prefijoDLQ = "dlq:"

// EntradaDLQ is one dead job.
type EntradaDLQ struct {
	Cola      string    `json:"cola"`
	Job       Job       `json:"job"`
	Motivo    string    `json:"motivo"`
	FalladoEn time.Time `json:"fallado_en"`
}

func claveDLQ(queue string) string { return prefijoDLQ + queue }

// enviarADLQ never fails the caller: a job lost here is only logged.
func enviarADLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, motivo string) {
	data, err := json.Marshal(EntradaDLQ{Cola: queue, Job: job, Motivo: motivo, FalladoEn: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal")
		return
	}
	if err := rdb.LPush(ctx, claveDLQ(queue), data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("type", job.Type).RawJSON("payload", job.Payload).
			Msg("dlq: no se pudo guardar el job, se pierde")
		return
	}
	log.Warn().Str("queue", queue).Str("type", job.Type).Int("attempts", job.Attempts).Str("motivo", motivo).
		Msg("dlq: job movido a dead letter queue")
}

// DLQLength returns the number of dead jobs of queue, reported by /health.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, claveDLQ(queue)).Result()
}
