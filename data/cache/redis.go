package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/investgame/investgame/config"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/asxModel"
	"github.com/investgame/investgame/utils"
	"github.com/redis/go-redis/v9"
)

const (
	shareKeyPrefix = "share:"
	leaderboardKey = "leaderboard"
)

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func (r *RedisCache) SetShareSnapshots(ctx context.Context, snapshots []asxModel.ShareSnapshot) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetShareSnapshots start", slog.String("rqID", rqID))

	pipe := r.redis.Pipeline()
	for _, snapshot := range snapshots {
		snapshotJson, err := json.Marshal(snapshot)
		if err != nil {
			slog.Error(
				"can't marshall snapshot in SetShareSnapshots",
				slog.String("rqID", rqID),
				slog.String("err", err.Error()),
				slog.Any("snapshot", snapshot),
			)
			return errors.New("can't marshall snapshot")
		}

		pipe.Set(ctx, shareKeyPrefix+snapshot.IssuerID, snapshotJson, r.cfg.Cache.SharesExpiration)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetShareSnapshots completed", slog.String("rqID", rqID))

	return nil
}

func (r *RedisCache) GetShareSnapshot(ctx context.Context, issuerID string) (asxModel.ShareSnapshot, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetShareSnapshot start", slog.String("rqID", rqID))

	res, err := r.redis.Get(ctx, shareKeyPrefix+issuerID).Result()
	if err != nil {
		slog.Debug("miss on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", issuerID))
		return asxModel.ShareSnapshot{}, err
	}

	snapshot := asxModel.ShareSnapshot{}
	err = json.Unmarshal([]byte(res), &snapshot)
	if err != nil {
		slog.Error(
			"can't unmarshall snapshot in GetShareSnapshot",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return asxModel.ShareSnapshot{}, errors.New("can't unmarshall snapshot")
	}

	slog.Debug("GetShareSnapshot finished", slog.String("rqID", rqID))

	return snapshot, nil
}

func (r *RedisCache) SetLeaderboard(ctx context.Context, entries []model.LeaderboardEntry) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetLeaderboard start", slog.String("rqID", rqID))

	entriesJson, err := json.Marshal(entries)
	if err != nil {
		slog.Error("can't marshall leaderboard", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return errors.New("can't marshall leaderboard")
	}

	err = r.redis.Set(ctx, leaderboardKey, entriesJson, r.cfg.Cache.LeaderboardExpiration).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetLeaderboard completed", slog.String("rqID", rqID))

	return nil
}

func (r *RedisCache) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetLeaderboard start", slog.String("rqID", rqID))

	res, err := r.redis.Get(ctx, leaderboardKey).Result()
	if err != nil {
		return nil, err
	}

	var entries []model.LeaderboardEntry
	err = json.Unmarshal([]byte(res), &entries)
	if err != nil {
		slog.Error("can't unmarshall leaderboard", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, errors.New("can't unmarshall leaderboard")
	}

	slog.Debug("GetLeaderboard finished", slog.String("rqID", rqID))

	return entries, nil
}

func (r *RedisCache) FlushLeaderboard(ctx context.Context) error {
	return r.redis.Del(ctx, leaderboardKey).Err()
}
