package main

import (
	"context"
	"fmt"

	"smap/internal/loader"
	"smap/internal/sourcemap"
)

// openConsumer loads path and builds a consumer for it. The caller closes
// the consumer.
func openConsumer(ctx context.Context, path string) (sourcemap.Consumer, *loader.Document, error) {
	idx := current.timer.Begin("load")
	doc, err := loader.Load(appFs, path)
	current.timer.End(idx, path)
	if err != nil {
		return nil, nil, err
	}
	if doc.Flags&loader.FlagFromComment != 0 {
		logger.WithField("map", doc.MapURL).WithField("inline", doc.Inline).Debug("followed sourceMappingURL")
	}

	idx = current.timer.Begin("parse")
	c, err := sourcemap.New(ctx, doc.Raw, sourcemap.WithSourceMapURL(doc.MapURL))
	current.timer.End(idx, "")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", doc.MapURL, err)
	}
	return c, doc, nil
}
