// Package synclock provides a Redis-backed distributed lock serializing
// firewalld commits across a fleet of hosts sharing one Redis instance.
package synclock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zoneforge/fwctl/pkg/util"
)

// releaseScript deletes the lock key only if it still holds this holder's
// token, so a holder never releases a lock it no longer owns (e.g. after its
// TTL already expired and another host acquired it).
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// extendScript renews the TTL on a lock this holder still owns.
const extendScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`

// ErrHeld is returned by TryLock when another holder already owns the lock.
var ErrHeld = errors.New("synclock: lock is held by another party")

// Lock is a single Redis-backed mutual-exclusion lock, identified by key.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// New constructs a Lock bound to addr (a "host:port" Redis address) and key.
// ttl bounds how long a held lock survives without renewal; a crashed holder
// releases automatically once its TTL lapses.
func New(addr, key string, ttl time.Duration) *Lock {
	return &Lock{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    "fwctl:lock:" + key,
		ttl:    ttl,
	}
}

// Close closes the underlying Redis connection.
func (l *Lock) Close() error {
	return l.client.Close()
}

// TryLock attempts to acquire the lock without blocking. It returns ErrHeld
// if another holder currently owns it.
func (l *Lock) TryLock(ctx context.Context) error {
	token, err := randomToken()
	if err != nil {
		return util.NewAssertionError("generating lock token", err.Error())
	}

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return util.NewExternalError("redis", []string{"SETNX", l.key}, err.Error(), err)
	}
	if !ok {
		return ErrHeld
	}
	l.token = token
	return nil
}

// Lock blocks, polling at the given interval, until the lock is acquired or
// ctx is cancelled.
func (l *Lock) Lock(ctx context.Context, pollInterval time.Duration) error {
	for {
		err := l.TryLock(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrHeld) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Extend renews the lock's TTL, failing if this holder no longer owns it
// (e.g. the TTL already lapsed and another host acquired it).
func (l *Lock) Extend(ctx context.Context) error {
	res, err := l.client.Eval(ctx, extendScript, []string{l.key}, l.token, l.ttl.Milliseconds()).Result()
	if err != nil {
		return util.NewExternalError("redis", []string{"EVAL", "extend", l.key}, err.Error(), err)
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return ErrHeld
	}
	return nil
}

// Unlock releases the lock if this holder still owns it. Releasing a lock
// this holder no longer owns is a no-op, not an error.
func (l *Lock) Unlock(ctx context.Context) error {
	_, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Result()
	if err != nil {
		return util.NewExternalError("redis", []string{"EVAL", "release", l.key}, err.Error(), err)
	}
	return nil
}

func randomToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
