package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/pavelanni/bandscore/internal/events"
	"github.com/pavelanni/bandscore/internal/exam"
	"github.com/pavelanni/bandscore/internal/mongostore"
	"github.com/pavelanni/bandscore/internal/sequence"
	"github.com/pavelanni/bandscore/internal/store"
)

// backend holds the opened storage and the ID sequencer. Accounts,
// import hashes and the signing secret always live in the SQL store.
type backend struct {
	sql     *store.Store
	repo    exam.Repository
	seq     exam.Sequencer
	checks  map[string]func(context.Context) error
	closers []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			slog.Warn("close backend", "error", err)
		}
	}
}

func openSQL(ctx context.Context, v *viper.Viper) (*store.Store, error) {
	driver := store.Driver(strings.ToLower(v.GetString("db-driver")))
	st, err := store.Open(ctx, driver, v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return st, nil
}

func openBackend(ctx context.Context, v *viper.Viper) (*backend, error) {
	st, err := openSQL(ctx, v)
	if err != nil {
		return nil, err
	}
	b := &backend{
		sql:     st,
		repo:    st,
		checks:  map[string]func(context.Context) error{"db": st.Ping},
		closers: []func() error{st.Close},
	}
	var counter sequence.Counter = st

	switch kind := strings.ToLower(v.GetString("store")); kind {
	case "sql", "":
	case "mongo":
		ms, err := mongostore.Connect(ctx, v.GetString("mongo-uri"), v.GetString("mongo-db"))
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, ms.Close)
		if err := ms.EnsureIndexes(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.repo = ms
		b.checks["mongo"] = ms.Ping
		counter = ms
		slog.Info("using mongo store", "db", v.GetString("mongo-db"))
	default:
		b.Close()
		return nil, fmt.Errorf("unknown store %q", kind)
	}

	switch kind := strings.ToLower(v.GetString("sequence")); kind {
	case "store", "":
		b.seq = sequence.NewStore(counter)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     v.GetString("redis-addr"),
			Password: v.GetString("redis-password"),
			DB:       v.GetInt("redis-db"),
		})
		b.closers = append(b.closers, client.Close)
		rs := sequence.NewRedis(client, "")
		if err := rs.Ping(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		b.seq = rs
		b.checks["redis"] = rs.Ping
		slog.Info("using redis sequence", "addr", v.GetString("redis-addr"))
	default:
		b.Close()
		return nil, fmt.Errorf("unknown sequence backend %q", kind)
	}
	return b, nil
}

// publisher is an exam.Publisher that must be closed on shutdown.
type publisher interface {
	exam.Publisher
	Close() error
}

func openPublisher(ctx context.Context, v *viper.Viper) (publisher, error) {
	switch kind := strings.ToLower(v.GetString("events")); kind {
	case "log", "":
		return events.NewLog(nil), nil
	case "amqp":
		p, err := events.DialAMQP(v.GetString("amqp-url"), v.GetString("amqp-exchange"))
		if err != nil {
			return nil, err
		}
		slog.Info("publishing events to RabbitMQ", "exchange", v.GetString("amqp-exchange"))
		return p, nil
	case "sqs":
		p, err := events.NewSQS(ctx, v.GetString("aws-region"), v.GetString("sqs-queue"))
		if err != nil {
			return nil, err
		}
		slog.Info("publishing events to SQS", "queue", v.GetString("sqs-queue"))
		return p, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", kind)
	}
}

func newService(b *backend, pub exam.Publisher, v *viper.Viper, assessor exam.Assessor) *exam.Service {
	return exam.NewService(b.repo, b.seq, pub, exam.Config{
		SessionPrefix: v.GetString("session-prefix"),
		ExamPrefix:    v.GetString("exam-prefix"),
		Assessor:      assessor,
	})
}
