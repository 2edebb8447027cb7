package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	instanceKeyPrefix = "sitetrack:instances:"
	instanceIndexKey  = "sitetrack:instances:index"

	// Default timeout to mark instance as offline
	defaultInstanceTTL = 90 * time.Second

	// Instances that stay silent this long are dropped from the index
	instanceRemovalTimeout = 24 * time.Hour
)

// Registry keeps process heartbeats in Redis so the server can report
// which export workers are alive.
type Registry struct {
	client      *redis.Client
	instanceTTL time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewRegistry connects to redisURL and verifies the connection
func NewRegistry(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*Registry, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRegistryWithClient(client, ttl, logger), nil
}

// NewRegistryWithClient wraps an existing client
func NewRegistryWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = defaultInstanceTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{client: client, instanceTTL: ttl, logger: logger, now: time.Now}
}

// UpdateInstance records a heartbeat for info
func (r *Registry) UpdateInstance(ctx context.Context, info InstanceInfo) error {
	info.LastHeartbeat = r.now()
	info.Status = StatusOnline

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal instance info: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, instanceKeyPrefix+info.InstanceID, data, instanceRemovalTimeout)
	pipe.SAdd(ctx, instanceIndexKey, info.InstanceID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}
	return nil
}

// GetInstance retrieves an instance by ID
func (r *Registry) GetInstance(ctx context.Context, instanceID string) (*InstanceInfo, error) {
	data, err := r.client.Get(ctx, instanceKeyPrefix+instanceID).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("instance not found: %s", instanceID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	var info InstanceInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instance info: %w", err)
	}
	info.Status = resolveStatus(info, r.now(), r.instanceTTL)
	return &info, nil
}

// ListInstances returns known instances of instanceType, or all when empty.
// Instances whose record expired are pruned from the index.
func (r *Registry) ListInstances(ctx context.Context, instanceType InstanceType) ([]*InstanceInfo, error) {
	ids, err := r.client.SMembers(ctx, instanceIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	sort.Strings(ids)

	instances := make([]*InstanceInfo, 0, len(ids))
	for _, id := range ids {
		info, err := r.GetInstance(ctx, id)
		if err != nil {
			r.client.SRem(ctx, instanceIndexKey, id)
			continue
		}
		if instanceType != "" && info.InstanceType != instanceType {
			continue
		}
		instances = append(instances, info)
	}
	return instances, nil
}

// Snapshot lists all instances with their summary
func (r *Registry) Snapshot(ctx context.Context) (InstanceListResponse, error) {
	instances, err := r.ListInstances(ctx, "")
	if err != nil {
		return InstanceListResponse{}, err
	}
	return InstanceListResponse{Instances: instances, Summary: summarize(instances)}, nil
}

// Heartbeat publishes build() every interval until ctx is done
func (r *Registry) Heartbeat(ctx context.Context, interval time.Duration, build func() InstanceInfo) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		info := build()
		if err := r.UpdateInstance(ctx, info); err != nil && ctx.Err() == nil {
			r.logger.Warn("failed to send heartbeat", zap.String("instance", info.InstanceID), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close closes the Redis connection
func (r *Registry) Close() error {
	return r.client.Close()
}

func resolveStatus(info InstanceInfo, now time.Time, ttl time.Duration) InstanceStatus {
	if now.Sub(info.LastHeartbeat) > ttl {
		return StatusOffline
	}
	return StatusOnline
}

func summarize(instances []*InstanceInfo) InstanceSummary {
	summary := InstanceSummary{Total: len(instances), ByType: make(map[string]int)}
	for _, instance := range instances {
		if instance.Status == StatusOnline {
			summary.Online++
		} else {
			summary.Offline++
		}
		summary.ByType[string(instance.InstanceType)]++
	}
	return summary
}
