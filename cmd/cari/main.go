// Command cari queries a hosted search index from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ambiyansyah-risyal/cari"
	"github.com/ambiyansyah-risyal/cari/internal/config"
)

type cli struct {
	configPath string
	envFile    string
	timeout    time.Duration
	verbose    bool
	params     []string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{timeout: 30 * time.Second}

	root := &cobra.Command{
		Use:           "cari",
		Short:         "Query a hosted search index",
		Version:       cari.GetVersion(),
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "dotenv file loaded before reading CARI_* variables")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", c.timeout, "overall deadline of the command")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log dispatch and failover details to stderr")
	root.PersistentFlags().StringArrayVarP(&c.params, "param", "p", nil, "extra query parameter as name=value (repeatable)")

	root.AddCommand(c.searchCmd(), c.browseCmd(), c.getCmd(), c.indexesCmd())
	return root
}

func (c *cli) client() (*cari.Client, error) {
	cfg, err := config.Load(c.configPath, c.envFile)
	if err != nil {
		return nil, err
	}
	if c.verbose {
		cfg.Debug = true
	}
	client := cari.New(cfg.Options()...)
	if !client.IsValid() {
		return nil, client.ValidationError()
	}
	return client, nil
}

func (c *cli) query(text string) (cari.Query, error) {
	q := cari.NewQuery(text)
	for _, p := range c.params {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return q, fmt.Errorf("invalid --param %q, want name=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		q = q.Set(name, v)
	}
	return q, nil
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <index> <text>",
		Short: "Run a search and print the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			q, err := c.query(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			res, err := client.InitIndex(args[0]).SearchSync(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func (c *cli) browseCmd() *cobra.Command {
	var maxPages int
	cmd := &cobra.Command{
		Use:   "browse <index> [text]",
		Short: "Browse every page of an index, printing one page per line",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			text := ""
			if len(args) == 2 {
				text = args[1]
			}
			q, err := c.query(text)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			var (
				it       *cari.BrowseIterator
				pageErr  error
				printed  int
				writeErr error
			)
			it = client.InitIndex(args[0]).NewBrowseIterator(ctx, q, func(page cari.Record, err error) {
				if err != nil {
					pageErr = err
					return
				}
				if writeErr = writeLine(out, page); writeErr != nil {
					_ = it.Cancel()
					return
				}
				printed++
				if maxPages > 0 && printed >= maxPages {
					_ = it.Cancel()
				}
			})
			if err := it.Start(); err != nil {
				return err
			}
			<-it.Done()

			switch {
			case pageErr != nil:
				return pageErr
			case writeErr != nil:
				return writeErr
			case it.State() == cari.Cancelled && ctx.Err() != nil:
				return ctx.Err()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 for all)")
	return cmd
}

func (c *cli) getCmd() *cobra.Command {
	var attrs []string
	cmd := &cobra.Command{
		Use:   "get <index> <objectID>",
		Short: "Fetch one object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			res, err := client.InitIndex(args[0]).GetObject(ctx, args[1], attrs...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringSliceVar(&attrs, "attributes", nil, "attributes to retrieve")
	return cmd
}

func (c *cli) indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "List indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			res, err := client.ListIndexes(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
