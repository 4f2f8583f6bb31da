package main

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/agentuity/go-resultcache/fingerprint"
	"github.com/agentuity/go-resultcache/resultcache"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Walk through add, duplicate add, purge and replace, checking each step",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		c, err := resultcache.New[fingerprint.Key, []int](name, cfg)
		if err != nil {
			return err
		}
		defer c.Close()
		return scenario(cmd.OutOrStdout(), c)
	},
}

func scenario(out io.Writer, c *resultcache.ResultCache[fingerprint.Key, []int]) error {
	k1, err := fingerprint.New("SELECT total FROM orders WHERE customer = ?", "A")
	if err != nil {
		return err
	}
	v1 := []int{1, 2, 3}
	v2 := []int{4, 5, 6}

	step := func(label string, want []int) error {
		got, ok := c.Get(k1)
		fmt.Fprintf(out, "%-28s Get(k1) = %v, %t\n", label, got, ok)
		if want == nil {
			if ok {
				return errors.Newf("%s: expected a miss, got %v", label, got)
			}
			return nil
		}
		if !ok || !slices.Equal(got, want) {
			return errors.Newf("%s: expected %v, got %v (found=%t)", label, want, got, ok)
		}
		return nil
	}

	c.Add(k1, v1, time.Hour)
	if err := step("Add(k1, v1, 1h)", v1); err != nil {
		return err
	}
	c.Add(k1, v2, time.Hour)
	if err := step("Add(k1, v2, 1h)", v1); err != nil {
		return err
	}
	c.Purge(k1)
	if err := step("Purge(k1)", nil); err != nil {
		return err
	}
	c.AddOrReplace(k1, v2, time.Hour, true)
	if err := step("AddOrReplace(k1, v2, 1h, true)", v2); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func init() {
	rootCmd.AddCommand(scenarioCmd)
}
