package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-food-course-suggestions/app/httpclient"
	"github.com/FACorreiaa/go-food-course-suggestions/config"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

// RegionFetcher lists the stores of one or more regions from the regional source.
type RegionFetcher interface {
	FetchRegion(ctx context.Context, region string) ([]types.RegionRecord, error)
	FetchRegions(ctx context.Context, regions []string) ([]types.RegionRecord, error)
}

// DetailFetcher loads a single store from the regional source.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, sno string) (*types.RegionRecord, error)
}

var _ RegionFetcher = (*Fetcher)(nil)
var _ DetailFetcher = (*Fetcher)(nil)

type Fetcher struct {
	client *resty.Client
	cfg    config.RegionalSourceConfig
	cache  ListingCache
	logger *slog.Logger
}

// NewFetcher takes ownership of client and points it at the regional source.
// cache may be nil.
func NewFetcher(client *resty.Client, cfg config.RegionalSourceConfig, cache ListingCache, logger *slog.Logger) *Fetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	client.SetBaseURL(cfg.BaseURL).SetHeader("Accept", "application/xml")
	return &Fetcher{
		client: client,
		cfg:    cfg,
		cache:  cache,
		logger: logger.With(slog.String("component", "RegionStoreFetcher")),
	}
}

func (f *Fetcher) FetchRegion(ctx context.Context, region string) ([]types.RegionRecord, error) {
	ctx, span := otel.Tracer("RegionStoreFetcher").Start(ctx, "FetchRegion", trace.WithAttributes(
		attribute.String("region", region),
	))
	defer span.End()
	l := f.logger.With(slog.String("method", "FetchRegion"), slog.String("region", region))

	if f.cache != nil {
		if records, ok := f.cache.Get(ctx, region); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true), attribute.Int("records", len(records)))
			l.DebugContext(ctx, "Region listing served from cache", slog.Int("records", len(records)))
			return records, nil
		}
	}

	body, err := f.get(ctx, f.cfg.ListEndpoint, map[string]string{
		"serviceKey":    f.cfg.ServiceKey,
		f.cfg.AreaParam: region,
		"numOfRows":     strconv.Itoa(f.cfg.PageSize),
		"pageNo":        "1",
	})
	if err != nil {
		l.ErrorContext(ctx, "Region listing request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing request failed")
		return nil, err
	}

	doc := decodeItems(body, l)
	if err := doc.err(); err != nil {
		l.ErrorContext(ctx, "Region listing returned an error envelope", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing error envelope")
		return nil, err
	}

	if f.cache != nil {
		f.cache.Set(ctx, region, doc.Records)
	}

	span.SetAttributes(attribute.Int("records", len(doc.Records)), attribute.Int("skipped", doc.Skipped))
	span.SetStatus(codes.Ok, "")
	l.InfoContext(ctx, "Fetched region listing", slog.Int("records", len(doc.Records)), slog.Int("skipped", doc.Skipped))
	return doc.Records, nil
}

// FetchRegions fetches every region concurrently and returns the records in the
// order the regions were given. A store listed under two regions appears once.
func (f *Fetcher) FetchRegions(ctx context.Context, regions []string) ([]types.RegionRecord, error) {
	ctx, span := otel.Tracer("RegionStoreFetcher").Start(ctx, "FetchRegions", trace.WithAttributes(
		attribute.StringSlice("regions", regions),
	))
	defer span.End()

	results := make([][]types.RegionRecord, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)
	for i, region := range regions {
		g.Go(func() error {
			records, err := f.FetchRegion(gctx, region)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "region fetch failed")
		return nil, err
	}

	seen := make(map[string]struct{})
	var all []types.RegionRecord
	for _, records := range results {
		for _, r := range records {
			if _, dup := seen[r.Sno]; dup {
				continue
			}
			seen[r.Sno] = struct{}{}
			all = append(all, r)
		}
	}
	span.SetAttributes(attribute.Int("records", len(all)))
	span.SetStatus(codes.Ok, "")
	return all, nil
}

func (f *Fetcher) FetchDetail(ctx context.Context, sno string) (*types.RegionRecord, error) {
	ctx, span := otel.Tracer("RegionStoreFetcher").Start(ctx, "FetchDetail", trace.WithAttributes(
		attribute.String("sno", sno),
	))
	defer span.End()
	l := f.logger.With(slog.String("method", "FetchDetail"), slog.String("sno", sno))

	body, err := f.get(ctx, f.cfg.DetailEndpoint, map[string]string{
		"serviceKey": f.cfg.ServiceKey,
		"SNO":        sno,
	})
	if err != nil {
		l.ErrorContext(ctx, "Store detail request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail request failed")
		return nil, err
	}

	doc := decodeItems(body, l)
	if err := doc.err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail error envelope")
		return nil, err
	}

	for _, r := range doc.Records {
		if r.Sno == sno {
			span.SetStatus(codes.Ok, "")
			return &r, nil
		}
	}

	l.WarnContext(ctx, "Store detail not found upstream", slog.Int("records", len(doc.Records)))
	err = types.NewNotFoundError(types.CodeStoreNotFound, fmt.Sprintf("store %s not found", sno))
	span.RecordError(err)
	span.SetStatus(codes.Error, "store not found")
	return nil, err
}

func (f *Fetcher) get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		if httpclient.IsTimeout(err) {
			return nil, types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeExternalAPITimeout,
				"regional store service timed out", err)
		}
		return nil, types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeExternalAPI,
			"regional store service unavailable", err)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, types.NewAppError(types.ErrKindUpstreamAuth, types.CodeExternalAPIAuth,
			"regional store service rejected the credentials", fmt.Errorf("status %d", status))
	case status >= http.StatusBadRequest:
		return nil, types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeExternalAPI,
			"regional store service unavailable", fmt.Errorf("status %d", status))
	}
	return resp.Body(), nil
}
