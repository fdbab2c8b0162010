package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reyhansunduk/efatura-mcp-server/internal/taxid"
)

var validateCmd = &cobra.Command{
	Use:   "validate [tax numbers...]",
	Short: "Validate Turkish tax numbers",
	Long: `Validate one or more Turkish tax identifiers offline.

Checks performed:
  - VKN: 10 digits with the GİB checksum (companies)
  - TCKN: 11 digits, no leading zero, both check digits (individuals)

Examples:
  efatura-mcp validate 4750128368
  efatura-mcp validate 4750128368 10000000146 --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	results := make([]*TaxNumberResult, 0, len(args))
	allValid := true

	for _, arg := range args {
		result := validateTaxNumber(arg)
		results = append(results, result)

		if !result.Valid {
			allValid = false
		}
	}

	// Output results
	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s: %s\n", r.TaxNumber, r.Kind)
			} else {
				fmt.Printf("✗ %s: INVALID\n", r.TaxNumber)
				fmt.Printf("  - %s\n", r.Reason)
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed for some tax numbers")
	}

	return nil
}

func validateTaxNumber(raw string) *TaxNumberResult {
	number := strings.TrimSpace(raw)
	verdict := taxid.Validate(number)
	return &TaxNumberResult{
		TaxNumber: number,
		Valid:     verdict.Valid,
		Kind:      string(verdict.Kind),
		Reason:    verdict.Reason,
	}
}

// TaxNumberResult holds the result of validating a single tax number
type TaxNumberResult struct {
	TaxNumber string `json:"tax_number"`
	Valid     bool   `json:"valid"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason,omitempty"`
}
