package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	amqp "github.com/rabbitmq/amqp091-go"
)

type payload struct {
	SessionID string `json:"sessionId"`
}

func decode(t *testing.T, body []byte) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return env
}

func TestLogPublish(t *testing.T) {
	var buf bytes.Buffer
	p := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := p.Publish(context.Background(), "session.started", payload{SessionID: "ES2500001"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "type=session.started") || !strings.Contains(out, "ES2500001") {
		t.Errorf("log output = %q", out)
	}
}

func TestLogPublishEncodeError(t *testing.T) {
	p := NewLog(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err := p.Publish(context.Background(), "x", make(chan int)); err == nil {
		t.Error("expected encode error")
	}
}

type fakeChannel struct {
	mu       sync.Mutex
	exchange string
	keys     []string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.exchange = exchange
	c.keys = append(c.keys, key)
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := newAMQP(ch, "exam-events")
	if err := p.Publish(context.Background(), "session.completed", payload{SessionID: "ES2500007"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ch.exchange != "exam-events" || len(ch.keys) != 1 || ch.keys[0] != "session.completed" {
		t.Errorf("published to %s %v", ch.exchange, ch.keys)
	}
	msg := ch.msgs[0]
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Errorf("message = %+v", msg)
	}
	env := decode(t, msg.Body)
	if env.Type != "session.completed" || env.ID == "" || env.OccurredAt.IsZero() {
		t.Errorf("envelope = %+v", env)
	}
	if err := p.Close(); err != nil || !ch.closed {
		t.Errorf("Close: %v, closed=%v", err, ch.closed)
	}
}

func TestAMQPPublishConcurrent(t *testing.T) {
	ch := &fakeChannel{}
	p := newAMQP(ch, "exam-events")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Publish(context.Background(), "writing.submitted", payload{})
		}()
	}
	wg.Wait()
	if len(ch.msgs) != 20 {
		t.Errorf("published %d, want 20", len(ch.msgs))
	}
}

func TestAMQPPublishError(t *testing.T) {
	p := newAMQP(&fakeChannel{err: amqp.ErrClosed}, "exam-events")
	err := p.Publish(context.Background(), "session.started", payload{})
	if !errors.Is(err, amqp.ErrClosed) {
		t.Errorf("err = %v, want wrapped ErrClosed", err)
	}
}

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSPublish(t *testing.T) {
	api := &fakeSQS{}
	p := &SQS{client: api, queueURL: "https://sqs.example/123/exam-events"}
	if err := p.Publish(context.Background(), "writing.marked", payload{SessionID: "x"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(api.inputs) != 1 {
		t.Fatalf("sent %d messages", len(api.inputs))
	}
	in := api.inputs[0]
	if aws.ToString(in.QueueUrl) != "https://sqs.example/123/exam-events" {
		t.Errorf("queue = %s", aws.ToString(in.QueueUrl))
	}
	if got := aws.ToString(in.MessageAttributes["eventType"].StringValue); got != "writing.marked" {
		t.Errorf("eventType attribute = %q", got)
	}
	if env := decode(t, []byte(aws.ToString(in.MessageBody))); env.Type != "writing.marked" {
		t.Errorf("envelope type = %q", env.Type)
	}
}

func TestSQSPublishError(t *testing.T) {
	p := &SQS{client: &fakeSQS{err: errors.New("throttled")}, queueURL: "q"}
	if err := p.Publish(context.Background(), "writing.marked", payload{}); err == nil {
		t.Error("expected error")
	}
}
