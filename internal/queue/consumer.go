package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/photohub/internal/models"
)

// IndexHandler processes one decoded index task. A returned error naks the
// message so JetStream redelivers it.
type IndexHandler func(ctx context.Context, task models.IndexTask) error

type Consumer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewConsumer(natsURL string) (*Consumer, error) {
	nc, err := connect(natsURL)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Consumer{nc: nc, js: js}, nil
}

// handleIndexMsg decodes and dispatches one message. Undecodable payloads are
// acked and dropped since redelivery cannot fix them.
func handleIndexMsg(ctx context.Context, msg jetstream.Msg, handler IndexHandler) (ack bool) {
	var task models.IndexTask
	if err := json.Unmarshal(msg.Data(), &task); err != nil {
		slog.Error("unmarshal index task", "subject", msg.Subject(), "error", err)
		return true
	}
	if err := handler(ctx, task); err != nil {
		slog.Error("process index task", "image_id", task.ImageID, "error", err)
		return false
	}
	return true
}

// ConsumeIndexTasks starts consuming tasks from the IMAGES stream.
// workerCount determines how many goroutines process messages concurrently.
func (c *Consumer) ConsumeIndexTasks(ctx context.Context, consumerName string, handler IndexHandler, workerCount int) error {
	if workerCount <= 0 {
		workerCount = 1
	}

	stream, err := c.js.Stream(ctx, ImagesStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", ImagesStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       2 * time.Minute,
		MaxDeliver:    5,
		FilterSubject: ImagesSubjectBase + ".>",
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	msgCh := make(chan jetstream.Msg, workerCount*2)

	// Start consumer fetch loop
	go func() {
		defer close(msgCh)
		for {
			if ctx.Err() != nil {
				return
			}

			batch, err := cons.Fetch(workerCount, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("fetch index tasks error", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				select {
				case msgCh <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	// Start workers
	for i := 0; i < workerCount; i++ {
		go func(workerID int) {
			for msg := range msgCh {
				if handleIndexMsg(ctx, msg, handler) {
					if err := msg.Ack(); err != nil {
						slog.Warn("ack index task", "worker", workerID, "subject", msg.Subject(), "error", err)
					}
				} else {
					slog.Debug("nak index task", "worker", workerID, "subject", msg.Subject())
					_ = msg.Nak()
				}
			}
		}(i)
	}

	slog.Info("index consumer started", "consumer", consumerName, "workers", workerCount)
	return nil
}

func (c *Consumer) Close() {
	c.nc.Close()
}
