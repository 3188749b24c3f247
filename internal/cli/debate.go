package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tribunal/internal/deliberation"
	"github.com/ppiankov/tribunal/internal/ledger"
)

var testimonyMIME string

// debateCmd groups the linear debate commands
var debateCmd = &cobra.Command{
	Use:   "debate",
	Short: "Run the linear advocate/auditor/adjudicator debate",
}

var debateRunCmd = &cobra.Command{
	Use:   "run <claim-id>",
	Short: "Start the linear debate for a claim",
	Long: `Run executes the linear debate: the claimant advocate argues for payout,
the insurer auditor cross-examines, and the adjudicator issues a verdict.

If the auditor's case is judged suspicious, the debate halts in
INTERROGATION_PENDING and waits for testimony ('tribunal interrogate').

Example:
  tribunal debate run 0192f6c1-...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, func(a *app) (*deliberation.Outcome, error) {
			return a.engine.RunDebate(cmd.Context(), args[0])
		})
	},
}

var debateResumeCmd = &cobra.Command{
	Use:   "resume <claim-id>",
	Short: "Issue the verdict for a claim cleared by interrogation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, func(a *app) (*deliberation.Outcome, error) {
			return a.engine.ResumeDebate(cmd.Context(), args[0])
		})
	},
}

var investigateCmd = &cobra.Command{
	Use:   "investigate <claim-id>",
	Short: "Run the fractal investigation for a claim",
	Long: `Investigate asks a lead investigator to open up to three branches
(PHYSICAL, METADATA, LEGAL). Each branch holds its own specialist debate,
and a chief adjudicator synthesizes the branch reports into a verdict.

Inspect the result with 'tribunal claim tree <claim-id>'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, func(a *app) (*deliberation.Outcome, error) {
			return a.engine.RunInvestigation(cmd.Context(), args[0])
		})
	},
}

var interrogateCmd = &cobra.Command{
	Use:   "interrogate <claim-id> <testimony>",
	Short: "Submit recorded testimony for a halted claim",
	Long: `Interrogate sends the claimant's recorded testimony (a file path or
http(s) URL), together with the claim's evidence image when one is attached,
to the generation provider and scores its consistency.

Consistent testimony returns the claim to the debate; finish it with
'tribunal debate resume'. Inconsistent testimony rejects the claim for fraud
and slashes its bond.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, func(a *app) (*deliberation.Outcome, error) {
			testimony, err := a.loader.Load(cmd.Context(), args[1], testimonyMIME)
			if err != nil {
				return nil, fmt.Errorf("load testimony: %w", err)
			}
			return a.engine.Interrogate(cmd.Context(), args[0], testimony)
		})
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle <claim-id>",
	Short: "Pay an approved claim through the ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		if err := a.withEngine(false); err != nil {
			return err
		}

		out, err := a.engine.Settle(cmd.Context(), args[0])
		if err != nil {
			return runFailure(err)
		}
		renderOutcome(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(debateCmd, investigateCmd, interrogateCmd, settleCmd)
	debateCmd.AddCommand(debateRunCmd, debateResumeCmd)

	interrogateCmd.Flags().StringVar(&testimonyMIME, "mime", "", "testimony MIME type (detected from the file when empty)")
}

// runEngine opens the app with a generation-capable engine, runs fn and
// prints its outcome
func runEngine(cmd *cobra.Command, fn func(a *app) (*deliberation.Outcome, error)) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	if err := a.withEngine(true); err != nil {
		return err
	}

	out, err := fn(a)
	if err != nil {
		return runFailure(err)
	}
	renderOutcome(cmd.OutOrStdout(), out)
	return nil
}

// runFailure marks errors that a later attempt may get past. Precondition
// and configuration failures are returned unchanged.
func runFailure(err error) error {
	if errors.Is(err, deliberation.ErrInvalidState) || errors.Is(err, ledger.ErrDisabled) {
		return err
	}
	return fmt.Errorf("synchronization failed, retry: %w", err)
}
