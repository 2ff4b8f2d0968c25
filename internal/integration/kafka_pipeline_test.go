//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/metar-etl/internal/adapter/kafka"
	"github.com/couchcryptid/metar-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/metar-etl/internal/config"
	"github.com/couchcryptid/metar-etl/internal/domain"
	"github.com/couchcryptid/metar-etl/internal/metar"
	"github.com/couchcryptid/metar-etl/internal/observability"
	"github.com/couchcryptid/metar-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// Reports in the fixture are stamped on the 27th and 28th; publishing them
// with this time resolves them to April 2024.
var publishedAt = time.Date(2024, time.April, 28, 13, 0, 0, 0, time.UTC)

// decodedMessage holds a deserialized message read from the sink topic.
type decodedMessage struct {
	Observation domain.Observation
	Key         string
	Headers     map[string]string
}

// readDecoded reads a single message from the sink consumer and deserializes it.
func readDecoded(ctx context.Context, t *testing.T, consumer *kafkago.Reader) decodedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var obs domain.Observation
	require.NoError(t, json.Unmarshal(msg.Value, &obs), "unmarshal sink message")

	return decodedMessage{
		Observation: obs,
		Key:         string(msg.Key),
		Headers:     headers,
	}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func publish(ctx context.Context, t *testing.T, broker string, msgs ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (Extractor) and
// kafka.Writer (Loader) correctly round-trip a report through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-reader")

	line := loadMockData(t)[0] // KJFK, MVFR under BKN025
	publish(ctx, t, broker, kafkago.Message{
		Key:   []byte("KJFK"),
		Value: []byte(line),
		Time:  publishedAt,
	})

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("KJFK"), raw.Key)
	assert.Equal(t, line, string(raw.Value))
	assert.Equal(t, testSourceTopic, raw.Topic)
	assert.True(t, publishedAt.Equal(raw.Timestamp))
	require.NotNil(t, raw.Commit, "commit callback should be set")

	require.NoError(t, raw.Commit(ctx))

	transformer := pipeline.NewTransformer(metar.NewDecoder(), nil, discardLogger(), observability.NewMetricsForTesting())
	obs, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.Observation{obs}))

	dm := readDecoded(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "KJFK", dm.Key)
	assert.Equal(t, obs.ID, dm.Headers["id"])
	assert.Equal(t, "MVFR", dm.Headers["flight_category"])
	_, err = time.Parse(time.RFC3339, dm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "KJFK", dm.Observation.Station)
	assert.Equal(t, time.Date(2024, time.April, 27, 23, 51, 0, 0, time.UTC), dm.Observation.ObservedAt)
	require.NotNil(t, dm.Observation.CeilingFeet)
	assert.Equal(t, 2500, *dm.Observation.CeilingFeet)
	assert.Equal(t, line, dm.Observation.Report.String())
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Kafka
// and SQLite sinks) and verifies every fixture report arrives decoded.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-pipeline")

	lines := loadMockData(t)
	msgs := make([]kafkago.Message, 0, len(lines))
	for _, line := range lines {
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(line[:4]),
			Value: []byte(line),
			Time:  publishedAt,
		})
	}
	publish(ctx, t, broker, msgs...)

	metrics := observability.NewMetricsForTesting()

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "metar.db"), metrics, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	transformer := pipeline.NewTransformer(metar.NewDecoder(), nil, discardLogger(), metrics)
	p := pipeline.New(reader, transformer, pipeline.FanOutLoader{writer, store}, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := make([]decodedMessage, 0, len(lines))
	for len(received) < len(lines) {
		received = append(received, readDecoded(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	categories := map[string]int{}
	for _, dm := range received {
		categories[dm.Observation.FlightCategory]++

		assert.Equal(t, dm.Observation.Station, dm.Key)
		assert.Contains(t, dm.Headers, "processed_at", "missing processed_at header")
		assert.False(t, dm.Observation.TimeBucket.IsZero(), "missing time_bucket")
		assert.Equal(t, time.April, dm.Observation.ObservedAt.Month())
	}
	assert.Equal(t, 8, categories["VFR"], "VFR count")
	assert.Equal(t, 2, categories["MVFR"], "MVFR count")
	assert.Equal(t, 2, categories["IFR"], "IFR count")
	assert.Equal(t, 3, categories["LIFR"], "LIFR count")

	// The archive received the same batch.
	latest, err := store.Latest(ctx, "KDEN")
	require.NoError(t, err)
	assert.Equal(t, "LIFR", latest.FlightCategory)
	require.NotNil(t, latest.CeilingFeet)
	assert.Equal(t, 400, *latest.CeilingFeet)
	require.NoError(t, p.CheckReadiness(ctx))
}

// TestPipelineTransformError verifies that a report that does not decode
// (poison pill) is skipped and the pipeline continues with valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "test-poison")

	publish(ctx, t, broker,
		kafkago.Message{Key: []byte("bad"), Value: []byte("EGLL 281220Z 21007XX 9999 12/08 Q1015"), Time: publishedAt},
		kafkago.Message{Key: []byte("EGLL"), Value: []byte("EGLL 281220Z 24015KT 9999 FEW020 12/08 Q1015"), Time: publishedAt},
	)

	metrics := observability.NewMetricsForTesting()

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	transformer := pipeline.NewTransformer(metar.NewDecoder(), nil, discardLogger(), metrics)
	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)

	dm := readDecoded(ctx, t, consumer)
	assert.Equal(t, "EGLL", dm.Observation.Station)
	assert.Equal(t, "VFR", dm.Observation.FlightCategory)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
