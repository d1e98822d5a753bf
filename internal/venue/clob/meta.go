package clob

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"arb-executor/internal/executor"
)

// MetaResolver implements executor.MarketMetaResolver against a venue's
// market-metadata REST endpoint. Cheap enough (read-only, cacheable) to keep
// separate from Client, since a scanner component upstream may already hold
// this data and want to inject a resolver backed by its own cache instead.
type MetaResolver struct {
	http *resty.Client
}

// NewMetaResolver builds a resolver hitting baseURL's /markets/{id} endpoint.
func NewMetaResolver(baseURL string) *MetaResolver {
	return &MetaResolver{http: resty.New().SetBaseURL(baseURL)}
}

type marketMetaResponse struct {
	ConditionID string `json:"conditionId"`
	YesTokenID  string `json:"yesTokenId"`
	NoTokenID   string `json:"noTokenId"`
}

func (m *MetaResolver) GetMarketMeta(ctx context.Context, marketID string) (executor.MarketMeta, error) {
	var out marketMetaResponse
	resp, err := m.http.R().SetContext(ctx).SetResult(&out).Get("/markets/" + marketID)
	if err != nil {
		return executor.MarketMeta{}, fmt.Errorf("get market meta: %w", err)
	}
	if resp.IsError() {
		return executor.MarketMeta{}, fmt.Errorf("get market meta: venue returned %s", resp.Status())
	}
	return executor.MarketMeta{
		ConditionID: out.ConditionID,
		YesTokenID:  out.YesTokenID,
		NoTokenID:   out.NoTokenID,
	}, nil
}

var _ executor.MarketMetaResolver = (*MetaResolver)(nil)
