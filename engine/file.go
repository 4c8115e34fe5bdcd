package engine

import (
	"context"
	"fmt"
	"os"

	rv "github.com/rowpipe/validator"
	"github.com/rowpipe/validator/cache"
	"github.com/rowpipe/validator/schema"
	"github.com/rowpipe/validator/source"
)

// ValidateFile validates a CSV or JSON Lines file, consulting the result
// cache when one is configured. The format is chosen by extension:
// .jsonl and .ndjson parse as JSON Lines, everything else as CSV.
//
// Cache flow: the file's full byte content is hashed once; a hit returns
// the stored counts-only summary without re-reading the rows. A hash
// failure is fatal (the input is unreadable); a store failure is logged
// and treated as a miss so a flaky cache backend cannot fail a run.
func (v *Validator) ValidateFile(ctx context.Context, path string) (*rv.Result, error) {
	useCache := v.opts.UseCache && v.opts.CacheStore != nil

	var contentHash string
	if useCache {
		hasher := v.opts.Hasher
		if hasher == nil {
			hasher = cache.SHA256Hasher{}
		}
		var err error
		contentHash, err = cache.HashFile(hasher, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", rv.ErrSourceRead, err)
		}

		sum, ok, err := v.opts.CacheStore.Get(ctx, contentHash)
		if err != nil {
			v.logger.Warn("cache lookup failed, validating", "path", path, "error", err)
		} else if ok {
			if v.metrics != nil {
				v.metrics.RecordCacheHit()
			}
			v.logger.Debug("cache hit", "path", path, "hash", contentHash)
			return rv.FromSummary(sum), nil
		}
		if v.metrics != nil {
			v.metrics.RecordCacheMiss()
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rv.ErrSourceRead, err)
	}
	defer f.Close()

	result, err := v.ValidateSource(ctx, source.ForPath(path, f))
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := v.opts.CacheStore.Put(ctx, contentHash, result.Summary()); err != nil {
			v.logger.Warn("cache store failed", "path", path, "error", err)
		}
	}
	return result, nil
}

// ValidateOne evaluates a single record against the schema with a one-off
// Validator. Convenience for callers that don't keep a Validator around.
func ValidateOne(s *schema.Schema, record rv.Record, opts ...rv.Option) []rv.ValidationError {
	return New(s, opts...).ValidateRecord(record)
}

// ValidateAll validates the whole source with a one-off Validator.
func ValidateAll(ctx context.Context, s *schema.Schema, src source.Source, opts ...rv.Option) (*rv.Result, error) {
	return New(s, opts...).ValidateSource(ctx, src)
}
