package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/tribunal/internal/model"
	"github.com/ppiankov/tribunal/internal/store"
)

// claimFile is the YAML shape accepted by 'claim create --file'
type claimFile struct {
	InitialAnalysis model.InitialAnalysis `yaml:"initial_analysis"`
	ClaimantAddress string                `yaml:"claimant_address"`
	BondAmount      float64               `yaml:"bond_amount"`
	CoverageAmount  float64               `yaml:"coverage_amount"`
	Evidence        string                `yaml:"evidence"`
}

var (
	claimFromFile    string
	claimObject      string
	claimDamage      string
	claimConfidence  int
	claimDescription string
	claimEvidence    string
	claimAddress     string
	claimBond        float64
	claimCoverage    float64

	listStatus string
	listLimit  int
)

// claimCmd groups claim management commands
var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Submit and inspect claims",
}

var claimCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Submit a new claim with its initial evidence analysis",
	Long: `Create stores a claim in PENDING_ANALYSIS. When the claim carries a bond
and a claimant address, the bond is staked on the configured ledger; a failed
stake is logged and the claim is kept without a stake proof.

Example:
  tribunal claim create --object sedan --damage SEVERE --confidence 90 \
      --description "front bumper crushed" --coverage 1000 --bond 50 --address acct-1
  tribunal claim create --file claim.yaml`,
	Args: cobra.NoArgs,
	RunE: runClaimCreate,
}

var claimShowCmd = &cobra.Command{
	Use:   "show <claim-id>",
	Short: "Show a claim",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		c, err := a.store.GetClaim(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderClaim(cmd.OutOrStdout(), c)
		return nil
	},
}

var claimListCmd = &cobra.Command{
	Use:   "list",
	Short: "List claims, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := store.ClaimFilter{Limit: listLimit}
		if listStatus != "" {
			filter.Status = model.ClaimStatus(strings.ToUpper(listStatus))
			if !filter.Status.IsValid() {
				return fmt.Errorf("unknown status: %s", listStatus)
			}
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		claims, err := a.store.ListClaims(cmd.Context(), filter)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(claims) == 0 {
			fmt.Fprintln(out, dimColor.Sprint("no claims"))
			return nil
		}
		for _, c := range claims {
			renderClaimRow(out, c)
		}
		return nil
	},
}

var claimTreeCmd = &cobra.Command{
	Use:   "tree <claim-id>",
	Short: "Print the deliberation log of a claim as a tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		c, err := a.store.GetClaim(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		turns, err := a.store.GetTurns(cmd.Context(), c.ID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s  %s\n\n", headerColor.Sprint("Claim"), c.ID, colorizeStatus(c.Status))
		renderTree(out, turns)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(claimCmd)
	claimCmd.AddCommand(claimCreateCmd, claimShowCmd, claimListCmd, claimTreeCmd)

	f := claimCreateCmd.Flags()
	f.StringVarP(&claimFromFile, "file", "f", "", "read the claim from a YAML file")
	f.StringVar(&claimObject, "object", "", "detected object")
	f.StringVar(&claimDamage, "damage", "", "damage level (NONE, MINOR, MODERATE, SEVERE, TOTAL_LOSS)")
	f.IntVar(&claimConfidence, "confidence", 0, "analysis confidence score (0-100)")
	f.StringVar(&claimDescription, "description", "", "analysis description")
	f.StringVar(&claimEvidence, "evidence", "", "evidence image (file path or http(s) URL)")
	f.StringVar(&claimAddress, "address", "", "claimant ledger account (bond and payout)")
	f.Float64Var(&claimBond, "bond", 0, "collateral to stake at submission")
	f.Float64Var(&claimCoverage, "coverage", 0, "payout amount at 100%")

	claimListCmd.Flags().StringVar(&listStatus, "status", "", "only list claims with this status")
	claimListCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum number of claims (0 for all)")
}

func runClaimCreate(cmd *cobra.Command, args []string) error {
	c, err := claimFromFlags()
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	if err := a.withEngine(false); err != nil {
		return err
	}

	if err := a.engine.Submit(cmd.Context(), c); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Claim submitted: %s\n", okColor.Sprint("✓"), c.ID)
	if c.BondAmount > 0 && c.StakeProofID == "" {
		fmt.Fprintf(out, "%s bond was not staked on the ledger; it stays off-chain\n", warnColor.Sprint("⚠"))
	}
	fmt.Fprintf(out, "\nStart the deliberation:\n  tribunal debate run %s\n  tribunal investigate %s\n", c.ID, c.ID)
	return nil
}

// claimFromFlags builds the claim from --file, then lets explicit flags override it
func claimFromFlags() (*model.Claim, error) {
	var spec claimFile
	if claimFromFile != "" {
		data, err := os.ReadFile(claimFromFile)
		if err != nil {
			return nil, fmt.Errorf("read claim file: %w", err)
		}
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("parse claim file: %w", err)
		}
	}

	if claimObject != "" {
		spec.InitialAnalysis.DetectedObject = claimObject
	}
	if claimDamage != "" {
		spec.InitialAnalysis.DamageLevel = model.DamageLevel(strings.ToUpper(claimDamage))
	}
	if claimConfidence != 0 {
		spec.InitialAnalysis.ConfidenceScore = claimConfidence
	}
	if claimDescription != "" {
		spec.InitialAnalysis.Description = claimDescription
	}
	if claimEvidence != "" {
		spec.Evidence = claimEvidence
	}
	if claimAddress != "" {
		spec.ClaimantAddress = claimAddress
	}
	if claimBond != 0 {
		spec.BondAmount = claimBond
	}
	if claimCoverage != 0 {
		spec.CoverageAmount = claimCoverage
	}

	return spec.toClaim()
}

func (f claimFile) toClaim() (*model.Claim, error) {
	a := f.InitialAnalysis
	a.DamageLevel = model.DamageLevel(strings.ToUpper(string(a.DamageLevel)))
	if !a.DamageLevel.IsValid() {
		return nil, fmt.Errorf("invalid damage level %q (supported: NONE, MINOR, MODERATE, SEVERE, TOTAL_LOSS)", a.DamageLevel)
	}
	if a.ConfidenceScore < 0 || a.ConfidenceScore > 100 {
		return nil, fmt.Errorf("confidence must be between 0 and 100, got %d", a.ConfidenceScore)
	}
	if f.BondAmount < 0 || f.CoverageAmount < 0 {
		return nil, fmt.Errorf("bond and coverage must not be negative")
	}
	if f.BondAmount > 0 && f.ClaimantAddress == "" {
		return nil, fmt.Errorf("a bond requires a claimant address")
	}

	c := &model.Claim{
		InitialAnalysis: a,
		ClaimantAddress: f.ClaimantAddress,
		BondAmount:      f.BondAmount,
		CoverageAmount:  f.CoverageAmount,
	}
	if f.Evidence != "" {
		c.Evidence = model.Evidence{Ref: f.Evidence, Kind: model.EvidenceKindImage}
	}
	return c, nil
}
