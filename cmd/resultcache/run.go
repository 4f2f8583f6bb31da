package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/agentuity/go-resultcache/fingerprint"
	"github.com/agentuity/go-resultcache/resultcache"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a concurrent Get/Add/Purge workload and print the cache stats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		workers, _ := cmd.Flags().GetInt("workers")
		keys, _ := cmd.Flags().GetInt("keys")
		ops, _ := cmd.Flags().GetInt("ops")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if workers < 1 || keys < 1 || ops < 1 {
			return errors.New("--workers, --keys and --ops must be positive")
		}

		c, err := resultcache.New[fingerprint.Key, []string](name, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		fingerprints := make([]fingerprint.Key, keys)
		for i := range fingerprints {
			fingerprints[i] = fingerprint.MustNew("SELECT id, label FROM items WHERE bucket = ?", i)
		}

		started := time.Now()
		g, ctx := errgroup.WithContext(cmd.Context())
		for w := 0; w < workers; w++ {
			share := ops / workers
			if w < ops%workers {
				share++
			}
			g.Go(func() error {
				return workload(ctx, c, fingerprints, share, ttl)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		elapsed := time.Since(started)

		s := c.Stats()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ops:      %d in %s (%.0f ops/s)\n", ops, elapsed.Round(time.Millisecond), float64(ops)/elapsed.Seconds())
		fmt.Fprintf(out, "hits:     %d\n", s.Hits)
		fmt.Fprintf(out, "misses:   %d\n", s.Misses)
		fmt.Fprintf(out, "stored:   %d\n", s.Stored)
		fmt.Fprintf(out, "skipped:  %d\n", s.Skipped)
		fmt.Fprintf(out, "purged:   %d\n", s.Purged)
		fmt.Fprintf(out, "failures: %d\n", s.Failures)
		fmt.Fprintf(out, "keys:     %d\n", s.Keys)
		return nil
	},
}

// workload runs n operations against random fingerprints: mostly
// read-through lookups, with some forced refreshes and purges.
func workload(ctx context.Context, c *resultcache.ResultCache[fingerprint.Key, []string], keys []fingerprint.Key, n int, ttl time.Duration) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx := rand.IntN(len(keys))
		key := keys[idx]
		switch r := rand.IntN(100); {
		case r < 85:
			if _, _, err := resultcache.Exec(ctx, c, key, ttl, func(ctx context.Context) ([]string, bool, error) {
				return materialize(idx), true, nil
			}); err != nil {
				return err
			}
		case r < 95:
			c.AddOrReplace(key, materialize(idx), ttl, true)
		default:
			c.Purge(key)
		}
	}
	return nil
}

// materialize stands in for running the query behind bucket.
func materialize(bucket int) []string {
	rows := make([]string, 0, 4)
	for i := 0; i < cap(rows); i++ {
		rows = append(rows, fmt.Sprintf("item-%d-%d", bucket, i))
	}
	return rows
}

func init() {
	runCmd.Flags().Int("workers", 8, "number of concurrent workers")
	runCmd.Flags().Int("keys", 100, "number of distinct query fingerprints")
	runCmd.Flags().Int("ops", 10000, "total number of operations")
	runCmd.Flags().Duration("ttl", time.Minute, "lifetime of added entries")
	rootCmd.AddCommand(runCmd)
}
