package clipboard

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// MarkStore keeps the conversation ids each actor marked in Redis sets.
type MarkStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMarkStore constructs a MarkStore. Marks expire ttl after the last change;
// a zero ttl keeps them until cleared.
func NewMarkStore(client *redis.Client, ttl time.Duration) *MarkStore {
	return &MarkStore{client: client, ttl: ttl}
}

func markKey(actorID int64) string {
	return "clipboard:" + TypeName + ":" + strconv.FormatInt(actorID, 10)
}

// Mark adds ids to the actor's clipboard.
func (s *MarkStore) Mark(ctx context.Context, actorID int64, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	key := markKey(actorID)
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, members...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clipboard: mark: %w", err)
	}
	return nil
}

// Unmark removes ids from the actor's clipboard.
func (s *MarkStore) Unmark(ctx context.Context, actorID int64, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := s.client.SRem(ctx, markKey(actorID), members...).Err(); err != nil {
		return fmt.Errorf("clipboard: unmark: %w", err)
	}
	return nil
}

// Marked returns the actor's marked ids in ascending order.
func (s *MarkStore) Marked(ctx context.Context, actorID int64) ([]int64, error) {
	raw, err := s.client.SMembers(ctx, markKey(actorID)).Result()
	if err != nil {
		return nil, fmt.Errorf("clipboard: marked: %w", err)
	}
	ids := make([]int64, 0, len(raw))
	for _, member := range raw {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("clipboard: corrupt mark %q: %w", member, err)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Clear drops every mark of the actor.
func (s *MarkStore) Clear(ctx context.Context, actorID int64) error {
	if err := s.client.Del(ctx, markKey(actorID)).Err(); err != nil {
		return fmt.Errorf("clipboard: clear: %w", err)
	}
	return nil
}
