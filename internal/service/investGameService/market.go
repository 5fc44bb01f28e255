package investGameService

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/investgame/investgame/data/repository"
	"github.com/investgame/investgame/internal/externalApi"
	"github.com/investgame/investgame/internal/model"
	"github.com/investgame/investgame/internal/model/asxModel"
	"github.com/investgame/investgame/internal/model/dbModel"
	"github.com/investgame/investgame/internal/service"
	"github.com/investgame/investgame/utils"
)

func (s *InvestGameService) GetShare(ctx context.Context, issuerID string) (model.Share, error) {
	share, err := s.repo.GetShare(ctx, issuerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Share{}, service.ErrNotFound
		}
		return model.Share{}, err
	}

	return share, nil
}

func (s *InvestGameService) GetShares(ctx context.Context, params model.ListParams) ([]model.Share, int, error) {
	return s.repo.GetShares(ctx, params)
}

// GetShareSnapshot serves the live feed view of one issuer, cache first.
func (s *InvestGameService) GetShareSnapshot(ctx context.Context, issuerID string) (snapshot asxModel.ShareSnapshot, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.GetShareSnapshot"

	snapshot, err = s.cache.GetShareSnapshot(ctx, issuerID)
	if err == nil {
		return snapshot, nil
	}

	slog.Debug("share snapshot cache miss", slog.String("rqID", rqID), slog.String("op", op), slog.String("issuerID", issuerID))

	snapshot, err = s.asxApi.GetShareSnapshot(ctx, issuerID)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			return asxModel.ShareSnapshot{}, service.ErrNotFound
		}
		slog.Error("can't get share snapshot from feed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return asxModel.ShareSnapshot{}, service.ErrUpstreamFeed
	}

	if cacheErr := s.cache.SetShareSnapshots(ctx, []asxModel.ShareSnapshot{snapshot}); cacheErr != nil {
		slog.Warn("can't cache share snapshot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", cacheErr.Error()))
	}

	return snapshot, nil
}

// AddShare registers a new tradable issuer. The code is validated against
// the market feed and the first price-history point is recorded from the
// fetched snapshot.
func (s *InvestGameService) AddShare(ctx context.Context, issuerID string) (share model.Share, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.AddShare"

	slog.Debug("AddShare start", slog.String("rqID", rqID), slog.String("op", op), slog.String("issuerID", issuerID))
	defer func() {
		if err != nil {
			slog.Warn("AddShare failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("AddShare finished", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	snapshot, err := s.asxApi.GetShareSnapshot(ctx, issuerID)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			return model.Share{}, service.ErrNotFound
		}
		return model.Share{}, service.ErrUpstreamFeed
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		err := s.repo.InsertShare(ctx, snapshot)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return service.ErrAlreadyExists
			}
			return err
		}

		return s.repo.InsertSharePrices(ctx, []dbModel.SharePrice{{
			IssuerID: snapshot.IssuerID,
			Time:     time.Now().UTC(),
			Price:    snapshot.Price,
		}})
	})
	if err != nil {
		return model.Share{}, err
	}

	return s.GetShare(ctx, snapshot.IssuerID)
}

func (s *InvestGameService) GetSharePriceHistory(ctx context.Context, issuerID string, start, end time.Time) ([]model.SharePrice, error) {
	if _, err := s.GetShare(ctx, issuerID); err != nil {
		return nil, err
	}

	return s.repo.GetSharePriceHistory(ctx, issuerID, start, end)
}

// UpdateShares refreshes every registered issuer from the market feed. All
// snapshots are fetched up front so the store transaction stays short; a
// failed fetch is logged and skipped, it never aborts the refresh. Returns
// the number of issuers refreshed.
func (s *InvestGameService) UpdateShares(ctx context.Context) (updated int, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.UpdateShares"

	slog.Debug("UpdateShares start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("UpdateShares failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateShares finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("updated", updated))
		}
	}()

	issuerIDs, err := s.repo.GetAllIssuerIDs(ctx)
	if err != nil {
		return 0, err
	}

	snapshots := make([]asxModel.ShareSnapshot, 0, len(issuerIDs))
	for _, issuerID := range issuerIDs {
		snapshot, err := s.asxApi.GetShareSnapshot(ctx, issuerID)
		if err != nil {
			slog.Warn(
				"skipping issuer, feed fetch failed",
				slog.String("rqID", rqID),
				slog.String("op", op),
				slog.String("issuerID", issuerID),
				slog.String("err", err.Error()),
			)
			continue
		}
		snapshots = append(snapshots, snapshot)
	}

	if len(snapshots) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	prices := make([]dbModel.SharePrice, 0, len(snapshots))
	for _, snapshot := range snapshots {
		prices = append(prices, dbModel.SharePrice{
			IssuerID: snapshot.IssuerID,
			Time:     now,
			Price:    snapshot.Price,
		})
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpsertShares(ctx, snapshots); err != nil {
			return err
		}
		return s.repo.InsertSharePrices(ctx, prices)
	})
	if err != nil {
		return 0, err
	}

	if cacheErr := s.cache.SetShareSnapshots(ctx, snapshots); cacheErr != nil {
		slog.Warn("can't cache refreshed snapshots", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", cacheErr.Error()))
	}

	return len(snapshots), nil
}
