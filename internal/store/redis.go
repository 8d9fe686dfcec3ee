package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStreamPrefix namespaces the record streams.
const DefaultStreamPrefix = "motivsim"

// RedisSink appends records to one Redis stream per record kind, e.g.
// "motivsim:transactions". Each entry carries the JSON-encoded record
// under the "data" field.
type RedisSink struct {
	client *redis.Client
	prefix string
	maxLen int64
}

var _ Sink = (*RedisSink)(nil)

// RedisOption configures a RedisSink.
type RedisOption func(*RedisSink)

// WithStreamPrefix overrides DefaultStreamPrefix.
func WithStreamPrefix(p string) RedisOption {
	return func(s *RedisSink) { s.prefix = p }
}

// WithMaxLen caps each stream at roughly n entries (0 = unbounded).
func WithMaxLen(n int64) RedisOption {
	return func(s *RedisSink) { s.maxLen = n }
}

// NewRedisSink connects to the Redis URL and verifies the connection.
func NewRedisSink(ctx context.Context, url string, opts ...RedisOption) (*RedisSink, error) {
	if url == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}
	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	ro.DialTimeout = 5 * time.Second
	ro.ReadTimeout = 3 * time.Second
	ro.WriteTimeout = 3 * time.Second

	client := redis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return NewRedisSinkClient(client, opts...), nil
}

// NewRedisSinkClient wraps an existing client. The sink owns it afterwards.
func NewRedisSinkClient(client *redis.Client, opts ...RedisOption) *RedisSink {
	s := &RedisSink{client: client, prefix: DefaultStreamPrefix}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StreamKey returns the stream a record table is written to.
func (s *RedisSink) StreamKey(table string) string {
	return s.prefix + ":" + table
}

func (s *RedisSink) AppendDecisions(ctx context.Context, recs []DecisionData) error {
	return appendStream(ctx, s, TableDecisions, recs)
}

func (s *RedisSink) AppendActions(ctx context.Context, recs []ActionData) error {
	return appendStream(ctx, s, TableActions, recs)
}

func (s *RedisSink) AppendTransactions(ctx context.Context, recs []TransactionData) error {
	return appendStream(ctx, s, TableTransactions, recs)
}

func (s *RedisSink) AppendSessions(ctx context.Context, recs []ClassSessionData) error {
	return appendStream(ctx, s, TableSessions, recs)
}

func (s *RedisSink) AppendStudents(ctx context.Context, recs []StudentData) error {
	return appendStream(ctx, s, TableStudents, recs)
}

func (s *RedisSink) AppendBatch(ctx context.Context, rec BatchData) error {
	return appendStream(ctx, s, TableBatches, []BatchData{rec})
}

// Close closes the Redis client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

// xaddArgs builds the XADD arguments for one record.
func (s *RedisSink) xaddArgs(table string, rec any) (*redis.XAddArgs, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	args := &redis.XAddArgs{
		Stream: s.StreamKey(table),
		Values: map[string]any{"data": string(raw)},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return args, nil
}

// appendStream pipelines one XADD per record.
func appendStream[T any](ctx context.Context, s *RedisSink, table string, recs []T) error {
	if len(recs) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for i := range recs {
		args, err := s.xaddArgs(table, recs[i])
		if err != nil {
			return fmt.Errorf("encode %s record: %w", table, err)
		}
		pipe.XAdd(ctx, args)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xadd %s: %w", table, err)
	}
	return nil
}
