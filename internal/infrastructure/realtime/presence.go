package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/aadharbata/content-creator-platform-sub002/internal/infrastructure/cache/port"

	"github.com/rs/zerolog"
)

const presenceKeyPrefix = "presence:online:"

// PresencePublisher mirrors "user is online" into the shared cache with a
// TTL so other platform services can check presence without reaching into
// this process. The in-memory Registry stays authoritative for fan-out; the
// cache is a best-effort projection and failures are only logged.
type PresencePublisher struct {
	cache  port.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewPresencePublisher(cache port.Cache, ttl time.Duration, logger zerolog.Logger) *PresencePublisher {
	return &PresencePublisher{
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "presence").Logger(),
	}
}

// Online marks the user online, refreshing the TTL.
func (p *PresencePublisher) Online(ctx context.Context, userID string) {
	if err := p.cache.Set(ctx, presenceKeyPrefix+userID, time.Now().UTC().Format(time.RFC3339), p.ttl); err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("set presence")
	}
}

// Offline clears the user's presence key after their last connection drops.
func (p *PresencePublisher) Offline(ctx context.Context, userID string) {
	if _, err := p.cache.Del(ctx, presenceKeyPrefix+userID); err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("clear presence")
	}
}

// IsOnline checks the cached presence flag. A cache miss means offline.
func (p *PresencePublisher) IsOnline(ctx context.Context, userID string) (bool, error) {
	_, err := p.cache.Get(ctx, presenceKeyPrefix+userID)
	if errors.Is(err, port.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Heartbeat refreshes presence for every online user until ctx is canceled.
// Refreshing at half the TTL keeps keys alive across transient cache blips.
func (p *PresencePublisher) Heartbeat(ctx context.Context, registry *Registry) {
	ticker := time.NewTicker(p.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, userID := range registry.OnlineUsers() {
				p.Online(ctx, userID)
			}
		}
	}
}
