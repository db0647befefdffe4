package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/compliance"
	"github.com/nyashahama/advisory-drafting-backend/internal/datasource"
	"github.com/nyashahama/advisory-drafting-backend/internal/exemplar"
	"github.com/nyashahama/advisory-drafting-backend/internal/ranking"
	"github.com/nyashahama/advisory-drafting-backend/internal/resolver"
	"github.com/nyashahama/advisory-drafting-backend/internal/synth"
)

// errBlocked makes `check` exit non-zero for blocked text.
var errBlocked = errors.New("text contains prohibited language")

// cliOptions are the persistent flags shared by every subcommand.
type cliOptions struct {
	dataURL    string
	timeout    time.Duration
	policyFile string
	verbose    bool
}

// =============================================================================
// ROOT
// =============================================================================

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "advisorctl",
		Short:         "Resolve customers, rank candidates and check outreach drafts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if opts.dataURL == "" {
				opts.dataURL = os.Getenv("DATA_SERVICE_URL")
			}
			if opts.policyFile == "" {
				opts.policyFile = os.Getenv("COMPLIANCE_POLICY_FILE")
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.dataURL, "data-url", "", "customer data service base URL (default $DATA_SERVICE_URL)")
	pf.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout for the data service")
	pf.StringVar(&opts.policyFile, "policy", "", "compliance policy YAML (default $COMPLIANCE_POLICY_FILE)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log fallback decisions to stderr")

	root.AddCommand(
		newResolveCmd(opts),
		newRankCmd(),
		newCheckCmd(opts),
		newDraftCmd(opts),
		newPersonasCmd(),
	)
	return root
}

func (o *cliOptions) logger(cmd *cobra.Command) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (o *cliOptions) resolver(cmd *cobra.Command) (*resolver.Resolver, *synth.Synthesizer, error) {
	if o.dataURL == "" {
		return nil, nil, errors.New("no data service configured: pass --data-url or set DATA_SERVICE_URL")
	}
	syn := synth.New()
	src := datasource.NewHTTPSource(strings.TrimRight(o.dataURL, "/"), o.timeout)
	return resolver.New(src, syn, o.logger(cmd)), syn, nil
}

func (o *cliOptions) engine() (*compliance.Engine, error) {
	policy, err := compliance.LoadPolicy(o.policyFile)
	if err != nil {
		return nil, err
	}
	return compliance.NewEngine(policy), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// RESOLVE
// =============================================================================

func newResolveCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <customer-id>",
		Short: "Resolve a customer into a render-ready advisory view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := opts.resolver(cmd)
			if err != nil {
				return err
			}
			view := res.Resolve(cmd.Context(), args[0], resolver.Options{})
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
}

// =============================================================================
// RANK
// =============================================================================

func newRankCmd() *cobra.Command {
	var (
		mode   string
		file   string
		filter ranking.FilterState
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Filter and order a JSON array of candidates",
		Long: `Reads a JSON array of candidates from --file ("-" for stdin) and prints
them filtered and ordered by --mode (random, revenue, probability, name).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ranking.ParseMode(mode)
			if err != nil {
				return err
			}
			cands, err := readCandidates(cmd, file)
			if err != nil {
				return err
			}
			ranked, err := ranking.Rank(cands, m, filter)
			if err != nil {
				return err
			}
			if limit > 0 && len(ranked) > limit {
				ranked = ranked[:limit]
			}
			return printJSON(cmd.OutOrStdout(), ranking.Items(ranked))
		},
	}

	f := cmd.Flags()
	f.StringVar(&mode, "mode", string(ranking.ModeRandom), "ordering mode")
	f.StringVar(&file, "file", "-", "candidate JSON file, or - for stdin")
	f.StringVar(&filter.ProductCode, "product", "", "only this product code")
	f.Float64Var(&filter.MinPropensity, "min", 0, "minimum displayed propensity, in percent")
	f.StringVar(&filter.Search, "search", "", "case-insensitive text search")
	f.IntVar(&limit, "limit", 0, "print at most this many rows")
	return cmd
}

func readCandidates(cmd *cobra.Command, path string) ([]advisory.Candidate, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open candidates: %w", err)
		}
		defer f.Close()
		r = f
	}
	var cands []advisory.Candidate
	if err := json.NewDecoder(r).Decode(&cands); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	return cands, nil
}

// =============================================================================
// CHECK
// =============================================================================

func newCheckCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [text|-]",
		Short: "Screen outreach text against the compliance policy",
		Long: `Evaluates the given text, or stdin when the argument is "-" or absent.
Exits non-zero when the text is blocked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			text := ""
			if len(args) == 0 || args[0] == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(b)
			} else {
				text = args[0]
			}

			res := engine.Evaluate(text)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if res.State == advisory.ComplianceBlocked {
				return fmt.Errorf("%w: %s", errBlocked, strings.Join(res.ProhibitedMatches, ", "))
			}
			return nil
		},
	}
}

// =============================================================================
// DRAFT
// =============================================================================

func newDraftCmd(opts *cliOptions) *cobra.Command {
	var (
		customerID string
		tone       string
		product    string
		disclaimer bool
	)

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Compose an outreach draft for a customer",
		Long: `Resolves --customer, composes a draft in --tone for its top candidate (or
--product) using the built-in exemplars, and prints it with its compliance
state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := advisory.ParseTone(tone)
			if err != nil {
				return err
			}
			res, syn, err := opts.resolver(cmd)
			if err != nil {
				return err
			}
			engine, err := opts.engine()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*opts.timeout)
			defer cancel()
			view := res.Resolve(ctx, customerID, resolver.Options{})

			cand, ok := view.Candidate(product)
			if !ok {
				return fmt.Errorf("customer %q has no candidate to draft for (state %s)", customerID, view.State)
			}
			persona := syn.Persona(view.Customer.ClusterID)

			draft := engine.Compose(compliance.DraftContext{
				Customer:        view.Customer,
				Candidate:       cand,
				Tone:            t,
				ClusterCategory: persona.Category,
				Benefit:         syn.LeadBenefit(view),
			}, exemplar.BuiltIns())
			if disclaimer {
				draft = engine.ApplyDisclaimer(draft)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, draft.Body)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "-- %s · %s · %s\n", draft.ProductName, draft.Tone, draft.ComplianceState)
			if draft.NeedsDisclaimer {
				fmt.Fprintln(out, "-- needs disclaimer (rerun with --disclaimer)")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&customerID, "customer", "", "customer id")
	f.StringVar(&tone, "tone", string(advisory.ToneConcierge), "growth, security or concierge")
	f.StringVar(&product, "product", "", "product code (default: top candidate)")
	f.BoolVar(&disclaimer, "disclaimer", false, "append the product disclaimer")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

// =============================================================================
// PERSONAS
// =============================================================================

func newPersonasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the cluster personas used for fallback content and exemplar matching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range synth.New().Personas() {
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", p.ClusterID, p.Category, p.PreferredTone, p.Label)
			}
			return nil
		},
	}
}
