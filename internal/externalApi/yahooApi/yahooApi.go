package yahooApi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"classbourse/config"
	"classbourse/internal/externalApi"
	"classbourse/internal/model"
	"classbourse/internal/model/yahooModel"
	"classbourse/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const chartUrlTemplate = "/v8/finance/chart/%s"

type YahooApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *YahooApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.YahooApi.Url).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; classbourse/1.0)")
	return &YahooApi{client: client}
}

// GetQuote returns the latest close for symbol in its source currency.
// Returns externalApi.ErrNotFound when the symbol does not exist.
func (a *YahooApi) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	rawChart, err := a.getChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return model.Quote{}, err
	}

	res := rawChart.Chart.Result[0]
	if res.Meta.RegularMarketPrice == 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	return model.Quote{
		Symbol:   symbol,
		Currency: res.Meta.Currency,
		Price:    decimal.NewFromFloat(res.Meta.RegularMarketPrice),
	}, nil
}

// GetDailyCloses returns the daily close series for symbol over rng
// (e.g. "5d", "1mo", "3mo"), oldest first. Null closes are skipped.
func (a *YahooApi) GetDailyCloses(ctx context.Context, symbol, rng string) ([]model.Candle, error) {
	rawChart, err := a.getChart(ctx, symbol, rng, "1d")
	if err != nil {
		return nil, err
	}

	res := rawChart.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, errors.New("chart result has no quote series")
	}

	closes := res.Indicators.Quote[0].Close
	if len(closes) != len(res.Timestamp) {
		return nil, errors.New("lengths timestamp != close")
	}

	candles := make([]model.Candle, 0, len(closes))
	for i, c := range closes {
		if c == nil {
			continue
		}
		candles = append(candles, model.Candle{
			Date:  time.Unix(res.Timestamp[i], 0).UTC(),
			Close: decimal.NewFromFloat(*c),
		})
	}

	return candles, nil
}

func (a *YahooApi) getChart(ctx context.Context, symbol, rng, interval string) (yahooModel.ChartResponse, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf(chartUrlTemplate, symbol)
	params := map[string]string{
		"range":    rng,
		"interval": interval,
		"events":   "",
	}

	slog.Debug("start YahooApi chart request", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("range", rng))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing YahooApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return yahooModel.ChartResponse{}, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return yahooModel.ChartResponse{}, externalApi.ErrNotFound
	}

	rawChart := yahooModel.ChartResponse{}
	err = json.Unmarshal(resp.Body(), &rawChart)
	if err != nil {
		slog.Error("can't unmarshall response into yahooModel.ChartResponse", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return yahooModel.ChartResponse{}, err
	}

	if rawChart.Chart.Error != nil {
		if rawChart.Chart.Error.Code == "Not Found" {
			return yahooModel.ChartResponse{}, externalApi.ErrNotFound
		}
		return yahooModel.ChartResponse{}, fmt.Errorf("yahoo chart error: %s", rawChart.Chart.Error.Description)
	}

	if len(rawChart.Chart.Result) == 0 {
		return yahooModel.ChartResponse{}, externalApi.ErrNotFound
	}

	slog.Debug("YahooApi chart request complete", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return rawChart, nil
}
