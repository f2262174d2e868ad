// Command flowctl is a demo CLI that wires the pipeline engine
// end-to-end: config -> builder -> flow operators -> parallel
// scheduler -> retry -> metrics, printing overall progress as it
// runs. Grounded on sawpanic-cryptorun's cmd/cryptorun main.go (cobra root
// command + zerolog console writer wiring).
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flowcore/engine/pkg/config"
	"github.com/flowcore/engine/pkg/flow"
	"github.com/flowcore/engine/pkg/metrics"
	"github.com/flowcore/engine/pkg/parallel"
	"github.com/flowcore/engine/pkg/pipeline"
	"github.com/flowcore/engine/pkg/record"
	"github.com/flowcore/engine/pkg/retry"
)

var (
	cfgFile string
	envFile string
	itemsN  int
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	root := &cobra.Command{
		Use:     "flowctl",
		Short:   "Run a demo streaming pipeline",
		Version: "0.1.0",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo pipeline and print progress",
		RunE:  runDemo,
	}
	runCmd.Flags().StringVar(&cfgFile, "config", "", "config file name (without extension)")
	runCmd.Flags().StringVar(&envFile, "env", "", "optional .env file path")
	runCmd.Flags().IntVar(&itemsN, "items", 200, "number of synthetic input items")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("flowctl failed")
		os.Exit(1)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	defaults, err := config.Load(cfgFile, []string{".", "/etc/flowcore"}, envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := zerolog.ParseLevel(defaults.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Int("concurrency", defaults.Concurrency).
		Bool("ordered", defaults.Ordered).
		Int("max_attempts", defaults.MaxAttempts).
		Int("items", itemsN).
		Msg("starting demo pipeline")

	bus := metrics.NewEventBus(log.Logger)
	collector := metrics.NewMetadataCollector()
	tracker := metrics.NewProgressTracker(2, defaults.SamplingRate)
	tracker.PipelineStarted()
	bus.Subscribe(func(ev metrics.Event) {
		if ev.Type == metrics.EventStepError {
			log.Warn().Str("step", ev.StepName).Err(ev.Err).Msg("step error")
		}
	})

	source := flow.Range(0, int64(itemsN), 1)

	traceID := retry.NewTraceID()

	enrich := "enrich"
	collector.StepStarted(enrich, int64(defaults.Concurrency))
	tracker.StepStarted(enrich)
	bus.Publish(metrics.Event{Type: metrics.EventStepStart, StepName: enrich})

	builder := pipeline.Start(source)
	withEnrich := pipeline.StepAs(builder, enrich, func(in flow.Sequence[int64]) flow.Sequence[int64] {
		return parallel.ParallelMap(in, func(ctx context.Context, v int64) (int64, error) {
			collector.RecordInput(enrich)
			tracker.RecordItemProcessed()
			if rand.Intn(20) == 0 {
				return 0, fmt.Errorf("transient hiccup on %d", v)
			}
			collector.RecordOutput(enrich, 1)
			tracker.RecordItemYielded()
			return v * v, nil
		}, parallel.Options{Concurrency: defaults.Concurrency, Ordered: defaults.Ordered})
	}, pipeline.StepOptions{})

	retried := retry.WithRetry(mustBuild(withEnrich), func(v int64, idx int) (int64, error) {
		return v, nil
	}, retry.RetryOptions{
		MaxAttempts:     defaults.MaxAttempts,
		BackoffMs:       defaults.BackoffMs,
		RetryableErrors: defaults.RetryableErrors,
		StepName:        enrich,
		TraceID:         traceID,
	})

	batchStep := "batch"
	tracker.StepStarted(batchStep)
	bus.Publish(metrics.Event{Type: metrics.EventStepStart, StepName: batchStep})
	batched := flow.Batch[int64](10)(retried)

	records := flow.Map(func(b []int64, idx int) record.Record {
		return record.R("batch_index", int64(idx), "size", int64(len(b)), "sum", sumInt64(b))
	})(batched)

	state := pipeline.NewStateContainer()
	snapshot, err := pipeline.WithCheckpoint(state, batchStep, records)
	total := len(snapshot)
	if err == nil {
		for _, r := range snapshot {
			snap := tracker.Snapshot()
			fmt.Printf("batch %v: size=%v sum=%v (progress %.0f%%, eta %dms)\n",
				r["batch_index"], r["size"], r["sum"], snap.ProgressRatio*100, snap.EstimatedRemainingMs)
		}
		if data, encErr := pipeline.EncodeSnapshot(record.ToMaps(snapshot)); encErr == nil {
			log.Debug().Int("bytes", len(data)).Msg("encoded checkpoint snapshot")
		}
	}

	collector.StepCompleted(enrich, err != nil)
	tracker.StepCompleted()
	tracker.StepCompleted()
	if err != nil {
		tracker.PipelineError()
		bus.Publish(metrics.Event{Type: metrics.EventPipelineError, Err: err})
		return err
	}

	tracker.PipelineCompleted()
	bus.Publish(metrics.Event{Type: metrics.EventPipelineComplete})
	p50, p95, p99 := collector.Percentiles(enrich)
	log.Info().
		Int("total_items", total).
		Int64("p50_ms", p50).
		Int64("p95_ms", p95).
		Int64("p99_ms", p99).
		Msg("pipeline complete")
	return nil
}

func mustBuild[T any](b *pipeline.Builder[T]) flow.Sequence[T] {
	seq, err := b.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline build failed")
	}
	return seq
}

func sumInt64(vs []int64) int64 {
	var total int64
	for _, v := range vs {
		total += v
	}
	return total
}
