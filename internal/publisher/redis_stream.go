package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fvockel/squadscout/internal/harvest"
)

const (
	progressStream = "harvest.progress"
	summaryStream  = "harvest.summary"
)

// RedisStreamPublisher publishes harvest events to Redis streams so consumers
// outside this process can follow runs.
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a publisher on an existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// PublishProgressEvent publishes one progress event to the progress stream
func (rsp *RedisStreamPublisher) PublishProgressEvent(ctx context.Context, ev harvest.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: progressStream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}

// PublishRunSummary publishes the terminal outcome of one run
func (rsp *RedisStreamPublisher) PublishRunSummary(ctx context.Context, spec harvest.RunSpec, counts harvest.Counts, runErr string) error {
	payload := struct {
		Spec   harvest.RunSpec `json:"spec"`
		Counts harvest.Counts  `json:"counts"`
		Error  string          `json:"error,omitempty"`
	}{Spec: spec, Counts: counts, Error: runErr}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: summaryStream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
