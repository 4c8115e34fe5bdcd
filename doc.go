// Package rowvalidator provides high-throughput validation of tabular
// records against a declarative schema.
//
// It is built for pipelines that must check millions to billions of rows
// (financial transactions, ETL ingestion, IoT telemetry) without loading
// entire datasets into memory: goroutine worker pools for parallel chunk
// validation, bounded-memory streaming, sync.Pool object reuse, and a
// content-hash result cache to skip re-validation of unchanged inputs.
//
// # Quick Start
//
//	import (
//	    rv "github.com/rowpipe/validator"
//	    "github.com/rowpipe/validator/engine"
//	    "github.com/rowpipe/validator/schema"
//	    "github.com/rowpipe/validator/source"
//	)
//
//	s, err := schema.NewBuilder().
//	    Field("id", schema.Integer).Required().Done().
//	    Field("age", schema.Integer).Min(18).Max(120).Done().
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v := engine.New(s, rv.WithWorkerCount(8))
//	result, err := v.ValidateSource(ctx, source.NewCSV(file))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range result.Errors {
//	    fmt.Println(e)
//	}
//
// # Determinism
//
// Parallel and sequential execution over the same schema and source produce
// identical results. Errors are always ordered by absolute row index, and
// within a row by schema declaration order, regardless of worker scheduling.
//
// # Packages
//
//   - schema: field constraints and the schema builder
//   - engine: record validation and the chunked parallel executor
//   - worker: the bounded chunk worker pool
//   - stream: bounded-memory batch streaming over large sources
//   - source: row source adapters (CSV, JSONL, in-memory, S3)
//   - cache: content-hash result caching (memory, filesystem, Redis)
package rowvalidator
