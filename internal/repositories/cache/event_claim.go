package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultClaimPrefix = "billing:charge_claim"

// releaseScript deletes the claim only when this instance still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisEventClaimStore implements portsrepo.EventClaimStore with SET NX PX.
type RedisEventClaimStore struct {
	client redis.UniversalClient
	prefix string
	owner  string
}

var _ portsrepo.EventClaimStore = (*RedisEventClaimStore)(nil)

func NewRedisEventClaimStore(client redis.UniversalClient, prefix string) *RedisEventClaimStore {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = defaultClaimPrefix
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisEventClaimStore{
		client: client,
		prefix: trimmedPrefix,
		owner:  uuid.NewString(),
	}
}

func (r *RedisEventClaimStore) key(eventID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, eventID)
}

// Claim returns false when another worker holds the event. Redis failures are
// reported as apperrors.ErrUnavailable.
func (r *RedisEventClaimStore) Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key(eventID), r.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: claim event %s: %w", apperrors.ErrUnavailable, eventID, err)
	}
	return ok, nil
}

func (r *RedisEventClaimStore) Release(ctx context.Context, eventID string) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.key(eventID)}, r.owner).Err(); err != nil {
		return fmt.Errorf("%w: release event %s: %w", apperrors.ErrUnavailable, eventID, err)
	}
	return nil
}

// Connect parses redisURL and pings the server. The caller owns the returned client.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
