package investGameService

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/investgame/investgame/internal/converter/dbConverter"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/utils"
)

// GetLeaderboard returns the full ranking, cache first, plus the calling
// user's own entry when userID is set.
func (s *InvestGameService) GetLeaderboard(ctx context.Context, userID int64) (leaderboard model.Leaderboard, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.GetLeaderboard"

	slog.Debug("GetLeaderboard start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("GetLeaderboard failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetLeaderboard finished", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	entries, err := s.cache.GetLeaderboard(ctx)
	if err != nil {
		slog.Debug("leaderboard cache miss", slog.String("rqID", rqID), slog.String("op", op))

		entries, err = s.rankUsers(ctx)
		if err != nil {
			return model.Leaderboard{}, err
		}

		if cacheErr := s.cache.SetLeaderboard(ctx, entries); cacheErr != nil {
			slog.Warn("can't cache leaderboard", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", cacheErr.Error()))
		}
	}

	leaderboard = model.Leaderboard{Entries: entries}
	for i := range entries {
		if entries[i].UserID == userID {
			leaderboard.Current = &entries[i]
			break
		}
	}

	return leaderboard, nil
}

// UpdateLeaderboard persists a ranked snapshot for later top-gainer
// comparisons and drops the cached ranking.
func (s *InvestGameService) UpdateLeaderboard(ctx context.Context) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.UpdateLeaderboard"

	slog.Debug("UpdateLeaderboard start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("UpdateLeaderboard failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateLeaderboard finished", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := s.repo.GetLeaderboardRows(ctx)
	if err != nil {
		return err
	}

	err = s.repo.InsertLeaderboardSnapshot(ctx, rows, time.Now().UTC())
	if err != nil {
		return err
	}

	if cacheErr := s.cache.FlushLeaderboard(ctx); cacheErr != nil {
		slog.Warn("can't flush leaderboard cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", cacheErr.Error()))
	}

	return nil
}

// GetTopGainers compares current portfolio values against the most recent
// snapshot at or before now-window and returns the biggest absolute gains.
// Users without a snapshot value that old are excluded; no snapshot that
// old means an empty list.
func (s *InvestGameService) GetTopGainers(ctx context.Context, window time.Duration, limit int) (gainers []model.TopGainer, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.GetTopGainers"

	slog.Debug("GetTopGainers start", slog.String("rqID", rqID), slog.String("op", op), slog.Duration("window", window))
	defer func() {
		if err != nil {
			slog.Error("GetTopGainers failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetTopGainers finished", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := s.repo.GetLeaderboardRows(ctx)
	if err != nil {
		return nil, err
	}

	previous, err := s.repo.GetSnapshotValuesBefore(ctx, time.Now().UTC().Add(-window))
	if err != nil {
		return nil, err
	}

	gainers = make([]model.TopGainer, 0, len(rows))
	for _, row := range rows {
		before, ok := previous[row.UserID]
		if !ok {
			continue
		}

		gain := row.TotalValue.Sub(before)
		gainer := model.TopGainer{
			UserID:     row.UserID,
			Username:   row.Username,
			TotalValue: row.TotalValue,
			Gain:       gain,
		}
		if !before.IsZero() {
			gainer.GainPercent = gain.Div(before).Mul(hundred)
		}
		gainers = append(gainers, gainer)
	}

	sort.Slice(gainers, func(i, j int) bool {
		if c := gainers[i].Gain.Cmp(gainers[j].Gain); c != 0 {
			return c > 0
		}
		return gainers[i].UserID < gainers[j].UserID
	})

	if limit > 0 && len(gainers) > limit {
		gainers = gainers[:limit]
	}

	return gainers, nil
}

func (s *InvestGameService) rankUsers(ctx context.Context) ([]model.LeaderboardEntry, error) {
	rows, err := s.repo.GetLeaderboardRows(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, dbConverter.ConvertLeaderboardRow(row, i+1))
	}

	return entries, nil
}
