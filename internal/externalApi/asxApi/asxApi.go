// Package asxApi is the market-feed collaborator. It fetches per-issuer
// snapshots and normalizes the feed's quirks, in particular percent fields
// delivered as strings with a trailing '%'.
package asxApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/investgame/investgame/config"
	"github.com/investgame/investgame/internal/externalApi"
	"github.com/investgame/investgame/internal/model/asxModel"
	"github.com/investgame/investgame/utils"
	"github.com/shopspring/decimal"
)

type AsxApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *AsxApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.AsxApi.Url)
	return &AsxApi{client: client}
}

func (a *AsxApi) GetShareSnapshot(ctx context.Context, issuerID string) (asxModel.ShareSnapshot, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/asx/1/company/%s", issuerID)
	params := map[string]string{
		"fields": "primary_share",
	}

	slog.Debug("start AsxApi.GetShareSnapshot request", slog.String("rqID", rqID), slog.String("issuerID", issuerID))

	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing AsxApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return asxModel.ShareSnapshot{}, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return asxModel.ShareSnapshot{}, externalApi.ErrNotFound
	}

	if resp.IsError() {
		slog.Error("AsxApi returned error status", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return asxModel.ShareSnapshot{}, fmt.Errorf("asx api status %d", resp.StatusCode())
	}

	raw := asxModel.RawShareSnapshot{}
	err = json.Unmarshal(resp.Body(), &raw)
	if err != nil {
		slog.Error("can't unmarshall response into asxModel.RawShareSnapshot", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return asxModel.ShareSnapshot{}, err
	}

	snapshot, err := parseRawSnapshot(raw)
	if err != nil {
		slog.Error("can't parse raw snapshot", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return asxModel.ShareSnapshot{}, err
	}

	slog.Debug("AsxApi.GetShareSnapshot request complete", slog.String("rqID", rqID))

	return snapshot, nil
}

func parseRawSnapshot(raw asxModel.RawShareSnapshot) (asxModel.ShareSnapshot, error) {
	if raw.Code == "" {
		return asxModel.ShareSnapshot{}, externalApi.ErrNotFound
	}

	changePercent, err := parsePercent(raw.ChangeInPercent)
	if err != nil {
		return asxModel.ShareSnapshot{}, fmt.Errorf("parse change_in_percent %q: %w", raw.ChangeInPercent, err)
	}

	return asxModel.ShareSnapshot{
		IssuerID:         raw.Code,
		Fullname:         raw.NameFull,
		Abbrevname:       raw.NameAbbrev,
		Shortname:        raw.NameShort,
		Description:      raw.PrincipalAct,
		IndustrySector:   raw.SectorName,
		Price:            decimal.NewFromFloat(raw.LastPrice),
		MarketCap:        decimal.NewFromFloat(raw.MarketCap),
		ShareCount:       raw.NumberOfShares,
		DayChangePercent: changePercent,
		DayChangePrice:   decimal.NewFromFloat(raw.ChangePrice),
		DayPriceHigh:     decimal.NewFromFloat(raw.DayHighPrice),
		DayPriceLow:      decimal.NewFromFloat(raw.DayLowPrice),
		DayVolume:        raw.AverageDailyVol,
	}, nil
}

// parsePercent turns the feed's "-1.25%" strings into the fraction -0.0125.
func parsePercent(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	s = strings.TrimSuffix(s, "%")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}

	return d.Div(decimal.NewFromInt(100)), nil
}
