package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BY1502/ai-interview-service/internal/workflow"
	"github.com/BY1502/ai-interview-service/pkg"
	"github.com/redis/go-redis/v9"
)

const (
	clientKeyPrefix = "aii:client:"
	visitKeyPrefix  = "aii:visit:"

	maxUpdateRetries = 8
)

// RedisClients stores client state encrypted, since it holds the backend's
// session cookies.
type RedisClients struct {
	rdb    *redis.Client
	crypto *pkg.Crypto
	ttl    time.Duration
}

func NewRedisClients(rdb *redis.Client, crypto *pkg.Crypto, ttl time.Duration) *RedisClients {
	return &RedisClients{rdb: rdb, crypto: crypto, ttl: ttl}
}

func (s *RedisClients) Get(ctx context.Context, clientID string) (*ClientState, error) {
	sealed, err := s.rdb.Get(ctx, clientKeyPrefix+clientID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client state: %w", err)
	}
	plain, err := s.crypto.Decrypt(sealed)
	if err != nil {
		// written under another key; start over
		return nil, ErrNotFound
	}
	var st ClientState
	if err := json.Unmarshal(plain, &st); err != nil {
		return nil, fmt.Errorf("decode client state: %w", err)
	}
	if st.Credentials == nil {
		st.Credentials = map[string]string{}
	}
	return &st, nil
}

func (s *RedisClients) Put(ctx context.Context, state *ClientState) error {
	st := *state
	st.UpdatedAt = time.Now().UTC()
	plain, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode client state: %w", err)
	}
	sealed, err := s.crypto.Encrypt(plain)
	if err != nil {
		return fmt.Errorf("encrypt client state: %w", err)
	}
	if err := s.rdb.Set(ctx, clientKeyPrefix+st.ClientID, sealed, s.ttl).Err(); err != nil {
		return fmt.Errorf("put client state: %w", err)
	}
	return nil
}

func (s *RedisClients) Delete(ctx context.Context, clientID string) error {
	if err := s.rdb.Del(ctx, clientKeyPrefix+clientID).Err(); err != nil {
		return fmt.Errorf("delete client state: %w", err)
	}
	return nil
}

// RedisWorkspaces shares interview visits between instances. Updates are
// optimistic WATCH/MULTI transactions retried on conflict.
type RedisWorkspaces struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisWorkspaces(rdb *redis.Client, ttl time.Duration) *RedisWorkspaces {
	return &RedisWorkspaces{rdb: rdb, ttl: ttl}
}

func (s *RedisWorkspaces) Create(ctx context.Context, ws *workflow.Workspace) error {
	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("encode workspace: %w", err)
	}
	if err := s.rdb.Set(ctx, visitKeyPrefix+ws.VisitID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	return nil
}

func (s *RedisWorkspaces) Get(ctx context.Context, visitID string) (*workflow.Workspace, error) {
	data, err := s.rdb.Get(ctx, visitKeyPrefix+visitID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, workflow.ErrVisitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return decodeWorkspace(data)
}

func (s *RedisWorkspaces) Update(ctx context.Context, visitID string, fn func(*workflow.Workspace) error) (*workflow.Workspace, error) {
	key := visitKeyPrefix + visitID
	var out *workflow.Workspace

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return workflow.ErrVisitNotFound
		}
		if err != nil {
			return fmt.Errorf("get workspace: %w", err)
		}
		ws, err := decodeWorkspace(data)
		if err != nil {
			return err
		}
		if err := fn(ws); err != nil {
			return err
		}
		next, err := json.Marshal(ws)
		if err != nil {
			return fmt.Errorf("encode workspace: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, redis.KeepTTL)
			return nil
		})
		if err == nil {
			out = ws
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("update workspace %s: too much contention", visitID)
}
