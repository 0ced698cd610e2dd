// Package redisq implements the review task queue on Redis.
//
// The shape mirrors a visibility-timeout queue: a ready list feeds
// consumers, claimed messages sit in an inflight sorted set scored by their
// lease deadline, and a reaper moves expired leases back to ready or, once
// the receive budget is exhausted, to a companion dead-letter list. All
// multi-key steps run as Lua scripts so claims, deletes, and redrives are
// atomic under concurrent workers.
package redisq

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// Queue is an at-least-once Redis-backed transport with a companion DLQ.
type Queue struct {
	rdb             *redis.Client
	prefix          string
	visibility      time.Duration
	maxReceiveCount int

	claim   *redis.Script
	release *redis.Script
	reap    *redis.Script

	// now is injectable so tests can control lease expiry.
	now func() time.Time
	// pollInterval paces the long-poll loop in Receive.
	pollInterval time.Duration
}

// New builds a Queue. The prefix namespaces all keys; visibility is the
// lease granted to each receive; maxReceiveCount is the receive budget after
// which an expired lease redrives to the DLQ instead of the ready list.
func New(rdb *redis.Client, prefix string, visibility time.Duration, maxReceiveCount int) *Queue {
	if maxReceiveCount <= 0 {
		maxReceiveCount = 3
	}
	return &Queue{
		rdb:             rdb,
		prefix:          prefix,
		visibility:      visibility,
		maxReceiveCount: maxReceiveCount,
		claim:           redis.NewScript(luaClaim),
		release:         redis.NewScript(luaRelease),
		reap:            redis.NewScript(luaReap),
		now:             time.Now,
		pollInterval:    200 * time.Millisecond,
	}
}

func (q *Queue) readyKey() string { return q.prefix + ":ready" }
func (q *Queue) inflightKey() string { return q.prefix + ":inflight" }
func (q *Queue) dlqReadyKey() string { return q.prefix + ":dlq:ready" }
func (q *Queue) dlqInflightKey() string { return q.prefix + ":dlq:inflight" }
func (q *Queue) msgKey(id string) string { return q.prefix + ":msg:" + id }

func newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Message hashes expire so an orphaned id (crashed consumer, lost list
// entry) cannot leak storage. Dead-lettered messages keep their payload
// longer to give operators time to inspect and retry.
const (
	mainRetention = 24 * time.Hour
	dlqRetention  = 14 * 24 * time.Hour
)

// luaClaim pops one message id from the ready list, bumps its receive count,
// rotates its receipt, and records the lease deadline in the inflight set.
// KEYS: ready, inflight, msg key prefix. ARGV: deadline_ms, receipt.
const luaClaim = `
local id = redis.call("RPOP", KEYS[1])
if not id then
  return false
end
local msg = KEYS[3] .. id
local rc = redis.call("HINCRBY", msg, "receive_count", 1)
redis.call("HSET", msg, "receipt", ARGV[2])
redis.call("ZADD", KEYS[2], tonumber(ARGV[1]), id)
local body = redis.call("HGET", msg, "body")
return { id, body, rc }
`

// luaRelease deletes a claimed message if the receipt still matches.
// KEYS: inflight, msg key. ARGV: id, receipt.
const luaRelease = `
local stored = redis.call("HGET", KEYS[2], "receipt")
if stored ~= ARGV[2] then
  return 0
end
redis.call("ZREM", KEYS[1], ARGV[1])
redis.call("DEL", KEYS[2])
return 1
`

// luaReap moves expired leases back to the ready list, or to the DLQ list
// once the receive budget is spent. Returns {requeued, dead_lettered}.
// KEYS: inflight, ready, dlq_ready, msg key prefix.
// ARGV: now_ms, max_receive_count, batch, dlq_retention_ms.
const luaReap = `
local expired = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, tonumber(ARGV[3]))
local requeued = 0
local dead = 0
for _, id in ipairs(expired) do
  redis.call("ZREM", KEYS[1], id)
  local msg = KEYS[4] .. id
  redis.call("HDEL", msg, "receipt")
  local rc = tonumber(redis.call("HGET", msg, "receive_count") or "0")
  if rc >= tonumber(ARGV[2]) then
    redis.call("LPUSH", KEYS[3], id)
    redis.call("PEXPIRE", msg, tonumber(ARGV[4]))
    dead = dead + 1
  else
    redis.call("LPUSH", KEYS[2], id)
    requeued = requeued + 1
  end
end
return { requeued, dead }
`

// Enqueue stores the body and makes it visible on the main queue.
func (q *Queue) Enqueue(ctx domain.Context, body []byte) (string, error) {
	id := newID()
	pipe := q.rdb.TxPipeline()
	pipe.HSet(ctx, q.msgKey(id), "body", body, "receive_count", 0)
	pipe.PExpire(ctx, q.msgKey(id), mainRetention)
	pipe.LPush(ctx, q.readyKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("op=queue.enqueue: %w: %w", domain.ErrQueueTransient, err)
	}
	return id, nil
}

// Receive long-polls the main queue for up to maxWait and returns nil when
// no message becomes available. The returned message is invisible to other
// consumers until its lease expires or it is deleted.
func (q *Queue) Receive(ctx domain.Context, maxWait time.Duration) (*domain.QueueMessage, error) {
	return q.receive(ctx, q.readyKey(), q.inflightKey(), maxWait)
}

// ReceiveDLQ long-polls the companion dead-letter queue.
func (q *Queue) ReceiveDLQ(ctx domain.Context, maxWait time.Duration) (*domain.QueueMessage, error) {
	return q.receive(ctx, q.dlqReadyKey(), q.dlqInflightKey(), maxWait)
}

func (q *Queue) receive(ctx domain.Context, ready, inflight string, maxWait time.Duration) (*domain.QueueMessage, error) {
	deadline := q.now().Add(maxWait)
	for {
		msg, err := q.claimOne(ctx, ready, inflight)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}
		if !q.now().Before(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(q.pollInterval):
		}
	}
}

func (q *Queue) claimOne(ctx domain.Context, ready, inflight string) (*domain.QueueMessage, error) {
	receipt := newID()
	leaseDeadline := q.now().Add(q.visibility).UnixMilli()
	res, err := q.claim.Run(ctx, q.rdb, []string{ready, inflight, q.prefix + ":msg:"},
		leaseDeadline, receipt).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("op=queue.receive: %w: %w", domain.ErrQueueTransient, err)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) != 3 {
		return nil, fmt.Errorf("op=queue.receive: unexpected script reply %T", res)
	}
	id, _ := vals[0].(string)
	body, _ := vals[1].(string)
	rc, _ := vals[2].(int64)
	return &domain.QueueMessage{
		ID:           id,
		Receipt:      receipt,
		Body:         []byte(body),
		ReceiveCount: int(rc),
	}, nil
}

// Delete removes a received message using its receipt. A stale receipt
// (lease expired and message reclaimed) deletes nothing.
func (q *Queue) Delete(ctx domain.Context, msgID, receipt string) error {
	return q.delete(ctx, q.inflightKey(), msgID, receipt)
}

// DeleteDLQ removes a received dead-letter message using its receipt.
func (q *Queue) DeleteDLQ(ctx domain.Context, msgID, receipt string) error {
	return q.delete(ctx, q.dlqInflightKey(), msgID, receipt)
}

func (q *Queue) delete(ctx domain.Context, inflight, msgID, receipt string) error {
	n, err := q.release.Run(ctx, q.rdb, []string{inflight, q.msgKey(msgID)}, msgID, receipt).Int64()
	if err != nil {
		return fmt.Errorf("op=queue.delete: %w: %w", domain.ErrQueueTransient, err)
	}
	if n == 0 {
		slog.Debug("queue delete skipped: stale receipt", slog.String("message_id", msgID))
	}
	return nil
}

// ResendToMain re-enqueues a verbatim body on the main queue under a fresh
// message id with a reset receive budget.
func (q *Queue) ResendToMain(ctx domain.Context, body []byte) (string, error) {
	return q.Enqueue(ctx, body)
}

// Depth returns the number of messages on the main queue, ready plus inflight.
func (q *Queue) Depth(ctx domain.Context) (int64, error) {
	pipe := q.rdb.Pipeline()
	ready := pipe.LLen(ctx, q.readyKey())
	inflight := pipe.ZCard(ctx, q.inflightKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("op=queue.depth: %w: %w", domain.ErrQueueTransient, err)
	}
	observability.QueueDepth.WithLabelValues("ready").Set(float64(ready.Val()))
	observability.QueueDepth.WithLabelValues("inflight").Set(float64(inflight.Val()))
	return ready.Val() + inflight.Val(), nil
}

// DLQDepth returns the number of messages waiting on the dead-letter list.
func (q *Queue) DLQDepth(ctx domain.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.dlqReadyKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("op=queue.dlq_depth: %w: %w", domain.ErrQueueTransient, err)
	}
	observability.QueueDepth.WithLabelValues("dlq").Set(float64(n))
	return n, nil
}

// Reap sweeps expired leases once: messages with remaining receive budget go
// back to the ready list, exhausted ones move to the dead-letter list.
func (q *Queue) Reap(ctx domain.Context) (requeued, deadLettered int64, err error) {
	res, err := q.reap.Run(ctx, q.rdb,
		[]string{q.inflightKey(), q.readyKey(), q.dlqReadyKey(), q.prefix + ":msg:"},
		q.now().UnixMilli(), q.maxReceiveCount, 100, dlqRetention.Milliseconds()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("op=queue.reap: %w: %w", domain.ErrQueueTransient, err)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, 0, fmt.Errorf("op=queue.reap: unexpected script reply %T", res)
	}
	requeued, _ = vals[0].(int64)
	deadLettered, _ = vals[1].(int64)

	// Expired DLQ claims always go back to the DLQ ready list; the receive
	// budget only applies on the main queue.
	_, err = q.reap.Run(ctx, q.rdb,
		[]string{q.dlqInflightKey(), q.dlqReadyKey(), q.dlqReadyKey(), q.prefix + ":msg:"},
		q.now().UnixMilli(), 1<<30, 100, dlqRetention.Milliseconds()).Result()
	if err != nil {
		return requeued, deadLettered, fmt.Errorf("op=queue.reap: %w: %w", domain.ErrQueueTransient, err)
	}
	if requeued > 0 || deadLettered > 0 {
		slog.Info("queue reap",
			slog.Int64("requeued", requeued),
			slog.Int64("dead_lettered", deadLettered))
	}
	return requeued, deadLettered, nil
}

// RunReaper sweeps expired leases periodically until the context is done.
func (q *Queue) RunReaper(ctx domain.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("queue reaper stopping")
			return
		case <-ticker.C:
			if _, _, err := q.Reap(ctx); err != nil {
				slog.Error("queue reap failed", slog.Any("error", err))
			}
		}
	}
}
