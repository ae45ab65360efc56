package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clubreg/internal/registration/models"
	id "clubreg/pkg/domain"
)

// Redis keeps a session's projection in Redis so short-lived web processes
// can share one optimistic view. Keys expire with the session TTL; a set per
// session indexes the entries so the reconcile sweep does not need SCAN.
type Redis struct {
	client    redis.Cmdable
	sessionID string
	ttl       time.Duration
}

func NewRedis(client redis.Cmdable, sessionID string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, sessionID: sessionID, ttl: ttl}
}

func (s *Redis) entryKey(regID id.RegistrationID) string {
	return fmt.Sprintf("projection:%s:%d", s.sessionID, regID)
}

func (s *Redis) indexKey() string {
	return fmt.Sprintf("projection:%s:index", s.sessionID)
}

func (s *Redis) aheadKey() string {
	return fmt.Sprintf("projection:%s:ahead", s.sessionID)
}

func (s *Redis) Get(ctx context.Context, regID id.RegistrationID) (Entry, bool, error) {
	raw, err := s.client.Get(ctx, s.entryKey(regID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("projection get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("projection decode: %w", err)
	}
	return e, true, nil
}

func (s *Redis) MarkLocallyAhead(ctx context.Context, reg *models.Registration) error {
	if err := s.put(ctx, reg, SyncLocallyAhead); err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.aheadKey(), int64(reg.ID))
	pipe.Expire(ctx, s.aheadKey(), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Redis) MarkConfirmed(ctx context.Context, reg *models.Registration) error {
	if err := s.put(ctx, reg, SyncConfirmed); err != nil {
		return err
	}
	return s.client.SRem(ctx, s.aheadKey(), int64(reg.ID)).Err()
}

func (s *Redis) LocallyAhead(ctx context.Context) ([]Entry, error) {
	ids, err := s.client.SMembers(ctx, s.aheadKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("projection ahead set: %w", err)
	}
	var out []Entry
	for _, raw := range ids {
		regID, err := id.ParseRegistrationID(raw)
		if err != nil {
			continue
		}
		e, ok, err := s.Get(ctx, regID)
		if err != nil {
			return nil, err
		}
		if ok && e.SyncState == SyncLocallyAhead {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Redis) Discard(ctx context.Context, regID id.RegistrationID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.entryKey(regID))
	pipe.SRem(ctx, s.indexKey(), int64(regID))
	pipe.SRem(ctx, s.aheadKey(), int64(regID))
	_, err := pipe.Exec(ctx)
	return err
}

// Clear drops the whole session projection, typically on logout.
func (s *Redis) Clear(ctx context.Context) error {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("projection index: %w", err)
	}
	pipe := s.client.TxPipeline()
	for _, raw := range ids {
		if regID, err := id.ParseRegistrationID(raw); err == nil {
			pipe.Del(ctx, s.entryKey(regID))
		}
	}
	pipe.Del(ctx, s.indexKey())
	pipe.Del(ctx, s.aheadKey())
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Redis) put(ctx context.Context, reg *models.Registration, state SyncState) error {
	raw, err := json.Marshal(Entry{
		Registration: reg,
		SyncState:    state,
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("projection encode: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.entryKey(reg.ID), raw, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), int64(reg.ID))
	pipe.Expire(ctx, s.indexKey(), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}
