package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ddlc/pkg/arena"
	"ddlc/pkg/cache"
	"ddlc/pkg/compiler"
	"ddlc/pkg/config"
	"ddlc/pkg/ddl"
	"ddlc/pkg/metrics"
)

// env carries what every command needs once flags and config are resolved.
type env struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Collector
	cache   *cache.Cache // nil when caching is off
}

func (e *env) Close() error {
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}

type buildResult struct {
	Blob       []byte
	Files      []string
	Aggregates uint32
	BuildID    string
	Cached     bool
}

// build preprocesses and compiles inputs into a single definition. Later
// inputs are appended to the definition of the earlier ones, so a name may
// be declared only once across all of them.
func (e *env) build(ctx context.Context, inputs []string) (buildResult, error) {
	var (
		res   buildResult
		units = make([]compiler.Unit, 0, len(inputs))
	)
	for _, in := range inputs {
		unit, err := compiler.PreprocessFile(in, e.cfg.Compiler.IncludePaths)
		if err != nil {
			res.Files = append(res.Files, inputs...)
			return res, err
		}
		res.Files = append(res.Files, unit.Files...)
		units = append(units, unit)
	}

	key := e.cacheKey(units)
	if e.cache != nil {
		entry, err := e.cache.Get(ctx, key)
		switch {
		case err == nil:
			e.metrics.ObserveCache(true)
			e.log.Debug().Str("key", key).Str("build", entry.BuildID).Msg("cache hit")
			res.Blob, res.Aggregates, res.BuildID, res.Cached = entry.Blob, entry.Aggregates, entry.BuildID, true
			return res, nil
		case errors.Is(err, cache.ErrNotFound):
			e.metrics.ObserveCache(false)
		default:
			e.metrics.ObserveCache(false)
			e.log.Warn().Err(err).Msg("cache lookup failed")
		}
	}

	def := arena.NewLinear(e.cfg.Compiler.MaxDefinitionBytes)
	scratch := arena.NewLinear(e.cfg.Compiler.MaxScratchBytes)
	start := time.Now()
	var d ddl.Definition
	for i, unit := range units {
		var err error
		d, err = compiler.Compile(def, scratch, unit.Source, e.cfg.CompilerOptions(inputs[i]))
		if err != nil {
			e.metrics.ObserveCompile(time.Since(start), ddl.Definition{}, err)
			return res, err
		}
	}
	elapsed := time.Since(start)
	e.metrics.ObserveCompile(elapsed, d, nil)

	if err := ddl.Verify(d.Bytes()); err != nil {
		return res, fmt.Errorf("verify: %w", err)
	}
	res.Blob = append([]byte(nil), d.Bytes()...)
	res.Aggregates = d.NumAggregates()

	if e.cache != nil {
		entry, err := e.cache.Put(ctx, key, d)
		if err != nil {
			e.log.Warn().Err(err).Msg("cache store failed")
		} else {
			res.BuildID = entry.BuildID
		}
	}

	e.log.Info().
		Strs("file", inputs).
		Int("bytes", len(res.Blob)).
		Uint32("aggregates", res.Aggregates).
		Dur("duration", elapsed).
		Msg("compiled")
	return res, nil
}

func (e *env) cacheKey(units []compiler.Unit) string {
	var src []byte
	for _, u := range units {
		src = append(src, u.Source...)
		src = append(src, 0)
	}
	return cache.Key(src, fmt.Sprintf("%+v", e.cfg.Compiler))
}
