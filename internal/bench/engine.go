package bench

import (
	"context"
	"fmt"

	gosourcemap "github.com/go-sourcemap/sourcemap"

	"smap/internal/loader"
	"smap/internal/mcache"
	"smap/internal/sourcemap"
)

// session is one constructed consumer under measurement.
type session interface {
	// iterate walks every mapping and returns how many were seen,
	// or -1 when the engine cannot enumerate mappings.
	iterate(order sourcemap.Order) (int, error)
	dispose() error
}

type engine interface {
	construct(ctx context.Context, doc *loader.Document) (session, error)
}

func engineFor(e Engine, cache *mcache.Cache) (engine, error) {
	switch e {
	case EngineNative, "":
		return nativeEngine{cache: cache}, nil
	case EngineGoSourcemap:
		return goSourcemapEngine{}, nil
	default:
		return nil, fmt.Errorf("unsupported engine: %s", e)
	}
}

type nativeEngine struct {
	cache *mcache.Cache
}

func (e nativeEngine) construct(ctx context.Context, doc *loader.Document) (session, error) {
	opts := []sourcemap.Option{sourcemap.WithSourceMapURL(doc.MapURL)}
	if e.cache != nil {
		opts = append(opts, sourcemap.WithCache(e.cache))
	}
	c, err := sourcemap.New(ctx, doc.Raw, opts...)
	if err != nil {
		return nil, err
	}
	return nativeSession{c: c}, nil
}

type nativeSession struct {
	c sourcemap.Consumer
}

func (s nativeSession) iterate(order sourcemap.Order) (int, error) {
	n := 0
	err := s.c.EachMapping(order, func(sourcemap.Mapping) { n++ })
	return n, err
}

func (s nativeSession) dispose() error { return s.c.Close() }

type goSourcemapEngine struct{}

func (goSourcemapEngine) construct(_ context.Context, doc *loader.Document) (session, error) {
	c, err := gosourcemap.Parse(doc.MapURL, sourcemap.StripPrefix(doc.Raw))
	if err != nil {
		return nil, err
	}
	return goSourcemapSession{c: c}, nil
}

type goSourcemapSession struct {
	c *gosourcemap.Consumer
}

func (goSourcemapSession) iterate(sourcemap.Order) (int, error) { return -1, nil }

func (goSourcemapSession) dispose() error { return nil }
