package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-appointment-portal/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// AppointmentCacheKeyPrefix namespaces the per-viewer cached listings
const AppointmentCacheKeyPrefix = "appointments:user:"

// AppointmentCache is the advisory copy of each viewer's appointment list.
// The upstream service stays authoritative: entries are replaced wholesale by
// a full refetch and dropped after every mutating call, never patched in
// place. A miss is always safe; it just forces a refetch.
type AppointmentCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]entity.Appointment, bool)
	Set(ctx context.Context, userID uuid.UUID, appointments []entity.Appointment)
	Invalidate(ctx context.Context, userIDs ...uuid.UUID)
}

type redisAppointmentCache struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewRedisAppointmentCache(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) AppointmentCache {
	return &redisAppointmentCache{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

func cacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s%s", AppointmentCacheKeyPrefix, userID)
}

func (c *redisAppointmentCache) Get(ctx context.Context, userID uuid.UUID) ([]entity.Appointment, bool) {
	raw, err := c.redisClient.Get(ctx, cacheKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warnf("Failed to read appointment cache for user %s: %+v", userID, err)
		return nil, false
	}

	var appointments []entity.Appointment
	if err := json.Unmarshal(raw, &appointments); err != nil {
		c.log.Warnf("Corrupt appointment cache for user %s, dropping: %+v", userID, err)
		c.Invalidate(ctx, userID)
		return nil, false
	}
	return appointments, true
}

func (c *redisAppointmentCache) Set(ctx context.Context, userID uuid.UUID, appointments []entity.Appointment) {
	raw, err := json.Marshal(appointments)
	if err != nil {
		c.log.Warnf("Failed to encode appointment cache for user %s: %+v", userID, err)
		return
	}

	if err := c.redisClient.Set(ctx, cacheKey(userID), raw, c.ttl).Err(); err != nil {
		c.log.Warnf("Failed to write appointment cache for user %s: %+v", userID, err)
	}
}

func (c *redisAppointmentCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, cacheKey(id))
	}

	if err := c.redisClient.Del(ctx, keys...).Err(); err != nil {
		c.log.Warnf("Failed to invalidate appointment cache: %+v", err)
	}
}
