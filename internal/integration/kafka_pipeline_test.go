//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-risk-service/internal/adapter/accidents"
	"github.com/couchcryptid/accident-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/accident-risk-service/internal/adapter/sqlite"
	"github.com/couchcryptid/accident-risk-service/internal/config"
	"github.com/couchcryptid/accident-risk-service/internal/domain"
	"github.com/couchcryptid/accident-risk-service/internal/observability"
	"github.com/couchcryptid/accident-risk-service/internal/pipeline"
	"github.com/couchcryptid/accident-risk-service/internal/render"
	"github.com/couchcryptid/accident-risk-service/internal/report"
)

const (
	testSourceTopic = "test-report-requests"
	testSinkTopic   = "test-report-ready"
)

// readyMessage holds a deserialized message read from the sink topic.
type readyMessage struct {
	Event   domain.ReportReady
	Key     string
	Headers map[string]string
}

// readReady reads a single message from the sink consumer and deserializes it.
func readReady(ctx context.Context, t *testing.T, consumer *kafkago.Reader) readyMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.ReportReady
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal sink message")

	return readyMessage{Event: event, Key: string(msg.Key), Headers: headers}
}

type harness struct {
	cfg      *config.Config
	store    *sqlite.Store
	pipeline *pipeline.Pipeline
	outDir   string
}

func newHarness(ctx context.Context, t *testing.T, records []domain.AccidentRecord) *harness {
	t.Helper()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
		BatchFlushInterval: 2 * time.Second,
	}

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	metrics := observability.NewMetricsForTesting()
	client := accidents.NewClient(startAccidentsAPI(t, records), 5*time.Second, metrics, discardLogger())
	outDir := t.TempDir()
	gen := report.NewGenerator(client, render.NewPDFRenderer("Accident Risk Service"), outDir, discardLogger(),
		report.WithHistory(store),
		report.WithMetrics(metrics),
	)

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, pipeline.NewTransformer(gen, discardLogger()), writer, discardLogger(), metrics, 10)
	return &harness{cfg: cfg, store: store, pipeline: p, outDir: outDir}
}

func (h *harness) publish(ctx context.Context, t *testing.T, msgs ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(h.cfg.KafkaBrokers...),
		Topic: testSourceTopic,
	}
	defer producer.Close()
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

func (h *harness) sinkConsumer(t *testing.T) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     h.cfg.KafkaBrokers,
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func requestMessage(t *testing.T, req domain.ReportRequest) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(req.ID), Value: payload}
}

// TestPipelineEndToEnd publishes a report request and verifies the generated
// PDF, the history row and the report-ready event.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	h := newHarness(ctx, t, fixtureRecords())
	h.publish(ctx, t, requestMessage(t, domain.ReportRequest{ID: "req-e2e"}))

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- h.pipeline.Run(pipelineCtx) }()

	msg := readReady(ctx, t, h.sinkConsumer(t))

	pipelineCancel()
	require.NoError(t, <-errCh)

	ev := msg.Event
	assert.Equal(t, ev.ReportID, msg.Key)
	assert.Equal(t, "req-e2e", ev.RequestID)
	assert.Equal(t, domain.DefaultReportKind, msg.Headers["kind"])
	_, err := time.Parse(time.RFC3339, msg.Headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	assert.Equal(t, 140, ev.TotalAccidents)
	assert.Equal(t, 5, ev.ZoneCount)
	assert.Equal(t, 1, ev.HighRiskZones)
	assert.Equal(t, 4, ev.LowRiskZones)
	assert.Equal(t, "Lima Centro", ev.HighestRiskZone)
	assert.Equal(t, 85.7, ev.Concentration)

	info, err := os.Stat(ev.Path)
	require.NoError(t, err, "report file should exist")
	assert.Positive(t, info.Size())

	stored, err := h.store.Get(ctx, ev.ReportID)
	require.NoError(t, err)
	assert.Equal(t, ev.FileName, stored.FileName)
}

// TestPipelineSkipsUnusableRequests verifies that a poison message and a
// request with an unknown tier are skipped while valid requests still flow.
func TestPipelineSkipsUnusableRequests(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	h := newHarness(ctx, t, fixtureRecords())
	h.publish(ctx, t,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		requestMessage(t, domain.ReportRequest{ID: "req-bad-tier", IncludeTiers: []string{"severe"}}),
		requestMessage(t, domain.ReportRequest{ID: "req-good", IncludeTiers: []string{"high"}}),
	)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- h.pipeline.Run(pipelineCtx) }()

	consumer := h.sinkConsumer(t)
	msg := readReady(ctx, t, consumer)
	assert.Equal(t, "req-good", msg.Event.RequestID)

	// Verify no second message arrives.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)

	history, err := h.store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

// TestPipelineEmptyDataset verifies a request against an empty dataset is
// committed without producing a report.
func TestPipelineEmptyDataset(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	h := newHarness(ctx, t, nil)
	h.publish(ctx, t, requestMessage(t, domain.ReportRequest{ID: "req-empty"}))

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- h.pipeline.Run(pipelineCtx) }()

	readCtx, readCancel := context.WithTimeout(ctx, 15*time.Second)
	_, err := h.sinkConsumer(t).ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no report-ready event")

	pipelineCancel()
	require.NoError(t, <-errCh)

	entries, err := os.ReadDir(h.outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
