// trailquery run a filter over the trails of a yaml fixture and print the
// admitted events as json lines
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	tf "github.com/echoface/trail_filter"
	"github.com/echoface/trail_filter/util"
)

type (
	queryOptions struct {
		dataPath string
		filter   string
		cookie   string
		resolved bool
		merged   bool
		verbose  bool
	}

	eventLine struct {
		Cookie    string            `json:"cookie"`
		Timestamp uint64            `json:"ts"`
		Values    map[string]string `json:"values"`
	}

	matchLine struct {
		Trails []tf.TrailID `json:"trails"`
		Events uint64       `json:"events"`
	}
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &queryOptions{}
	root := &cobra.Command{
		Use:          "trailquery",
		Short:        "filter the event trails of a yaml fixture",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
				tf.LogLevel = tf.DebugLevel
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			tf.Logger = tf.NewSlogLogger(slog.New(handler))
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&opts.dataPath, "data", "d", "", "yaml fixture holding fields and trails")
	flags.StringVarP(&opts.filter, "filter", "f", "", `json filter, [[{"field":"f","value":"v","op":"equal"}]]`)
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	_ = root.MarkPersistentFlagRequired("data")

	scan := &cobra.Command{
		Use:   "scan",
		Short: "print the admitted events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd.OutOrStdout(), opts)
		},
	}
	scan.Flags().StringVarP(&opts.cookie, "cookie", "c", "", "only scan the trail of this cookie")
	scan.Flags().BoolVar(&opts.resolved, "resolved", false, "print every field instead of the changed ones")
	scan.Flags().BoolVar(&opts.merged, "merged", false, "print the fields changed since the previous admitted event")

	match := &cobra.Command{
		Use:   "match",
		Short: "print the trails having at least one admitted event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMatch(cmd.OutOrStdout(), opts)
		},
	}

	root.AddCommand(scan, match)
	return root
}

// openSession build the fixture store and set the filter, the --filter flag
// overrides the fixture filter
func openSession(opts *queryOptions) (*tf.Session, error) {
	fixture, err := LoadFixture(opts.dataPath)
	if err != nil {
		return nil, err
	}
	store, err := fixture.BuildStore()
	if err != nil {
		return nil, err
	}

	expr, err := fixture.Expression()
	if err != nil {
		return nil, errors.Wrap(err, "fixture filter")
	}
	if opts.filter != "" {
		if expr, err = tf.ParseExpressionJSON([]byte(opts.filter)); err != nil {
			return nil, errors.Wrap(err, "--filter")
		}
	}
	return tf.NewSession(store, tf.WithInitialFilter(expr))
}

func runScan(out io.Writer, opts *queryOptions) error {
	if opts.resolved && opts.merged {
		return errors.New("--resolved and --merged are exclusive")
	}
	session, err := openSession(opts)
	if err != nil {
		return err
	}
	var iterOpts []tf.IterOption
	if opts.resolved {
		iterOpts = append(iterOpts, tf.WithResolvedItems())
	}
	if opts.merged {
		iterOpts = append(iterOpts, tf.WithMergedEdges())
	}

	if opts.cookie != "" {
		cookie := ParseCookie(opts.cookie)
		cursor, err := session.IterateCookie(cookie, iterOpts...)
		if err != nil {
			return err
		}
		return printTrail(out, session, cookie, cursor)
	}

	sc, err := session.IterateAll(iterOpts...)
	if err != nil {
		return err
	}
	for sc.Next() {
		if err = printTrail(out, session, sc.Cookie(), sc.Trail()); err != nil {
			return err
		}
	}
	return sc.Err()
}

func printTrail(out io.Writer, session *tf.Session, cookie tf.Cookie, cursor *tf.TrailCursor) error {
	for cursor.Next() {
		ev := cursor.Event()
		values, err := session.Values(ev)
		if err != nil {
			return err
		}
		line := eventLine{Cookie: cookie.String(), Timestamp: ev.Timestamp, Values: values}
		if _, err = fmt.Fprintln(out, util.JSONString(line)); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func runMatch(out io.Writer, opts *queryOptions) error {
	session, err := openSession(opts)
	if err != nil {
		return err
	}
	collector, err := session.MatchTrails()
	if err != nil {
		return err
	}
	tf.LogInfo("filter %s matched %d trails", session.CompiledFilter(), collector.TrailCount())
	line := matchLine{Trails: collector.GetTrailIDs(), Events: collector.EventCount()}
	_, err = fmt.Fprintln(out, util.JSONString(line))
	return err
}
