package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/tweetstat"
	"github.com/anatolykoptev/tweetstat/internal/config"
	"github.com/anatolykoptev/tweetstat/internal/logging"
	"github.com/anatolykoptev/tweetstat/internal/metrics"
)

// defaultScreenName is the account analyzed when neither --user nor TWITTER_SCREEN_NAME is set.
const defaultScreenName = "DonaldJTrumpJr"

type options struct {
	envFile     string
	logLevel    string
	metricsAddr string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("tweetstat failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	timeline := newTimelineCmd(opts)

	root := &cobra.Command{
		Use:           "tweetstat",
		Short:         "Fetch or stream tweets and print simple statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.InitLogger(os.Stderr, opts.logLevel)
			return config.LoadEnv(opts.envFile)
		},
		RunE: timeline.RunE,
	}
	root.Flags().AddFlagSet(timeline.Flags())

	pf := root.PersistentFlags()
	pf.StringVar(&opts.envFile, "env", ".env", "env file with TWITTER_* credentials")
	pf.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		timeline,
		newHomeCmd(opts),
		newFriendsCmd(opts),
		newStreamCmd(opts),
		newAnalyzeCmd(),
	)
	return root
}

// clientConfig reads the environment and wires metrics.
func clientConfig(ctx context.Context, opts *options) tweetstat.ClientConfig {
	cfg := config.FromEnv()
	if opts.metricsAddr != "" {
		rec := metrics.NewRecorder()
		rec.Serve(ctx, opts.metricsAddr)
		cfg.MetricsHook = rec.Hook
	}
	return cfg
}

func newTimelineCmd(opts *options) *cobra.Command {
	var user string
	var count int
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Analyze a user's recent tweets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := clientConfig(ctx, opts)
			if user != "" {
				cfg.Subject = user
			}
			if cfg.Subject == "" {
				cfg.Subject = defaultScreenName
			}

			client, err := tweetstat.Dial(ctx, cfg)
			if err != nil {
				return err
			}
			posts, err := client.GetUserTimeline(ctx, count)
			if err != nil {
				return err
			}
			return printSummary(cmd, posts)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "screen name to analyze")
	cmd.Flags().IntVar(&count, "count", 200, "number of tweets to fetch")
	return cmd
}

func newHomeCmd(opts *options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "home",
		Short: "Analyze the authenticated account's home timeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := tweetstat.Dial(ctx, clientConfig(ctx, opts))
			if err != nil {
				return err
			}
			posts, err := client.GetHomeTimeline(ctx, count)
			if err != nil {
				return err
			}
			return printSummary(cmd, posts)
		},
	}
	cmd.Flags().IntVar(&count, "count", tweetstat.DefaultCount, "number of tweets to fetch")
	return cmd
}

func newFriendsCmd(opts *options) *cobra.Command {
	var user string
	var count int
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "List accounts a user follows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := clientConfig(ctx, opts)
			if user != "" {
				cfg.Subject = user
			}
			client, err := tweetstat.Dial(ctx, cfg)
			if err != nil {
				return err
			}
			friends, err := client.GetFriendList(ctx, count)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range friends {
				fmt.Fprintf(out, "@%s\t%s\t%d followers\n", f.Handle, f.DisplayName, f.Followers)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "screen name whose friends to list")
	cmd.Flags().IntVar(&count, "count", tweetstat.DefaultCount, "number of accounts to fetch")
	return cmd
}

func newStreamCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "stream TAG...",
		Short: "Append live tweets matching tags to a file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, tags []string) error {
			ctx := cmd.Context()
			err := tweetstat.NewStreamer(clientConfig(ctx, opts)).StreamTweets(ctx, out, tags)
			if errors.Is(err, context.Canceled) {
				slog.Info("stream interrupted")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "tweets.jsonl", "append-only output file")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE",
		Short: "Print statistics for tweets recorded by stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := tweetstat.LoadPosts(args[0])
			if err != nil {
				return err
			}
			return printSummary(cmd, posts)
		},
	}
}

func printSummary(cmd *cobra.Command, posts []*tweetstat.Post) error {
	table, err := tweetstat.ToTable(posts)
	if err != nil {
		return err
	}
	sum, err := tweetstat.Summarize(table)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tweets: %d\n", sum.Count)
	fmt.Fprintf(out, "mean length: %.2f\n", sum.MeanLength)
	fmt.Fprintf(out, "max likes: %d\n", sum.MaxLikes)
	return nil
}
