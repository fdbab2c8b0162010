package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	callArgs    string
	callTimeout time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Call one tool and print the result",
	Long: `Call a single tool against the configured backend and print its result.

Arguments are passed as a JSON object matching the tool's input schema.
Use "efatura-mcp tools" to list the available tools.

Examples:
  efatura-mcp call list_invoices --args '{"limit": 3}'
  efatura-mcp call get_invoice_detail --args '{"invoice_id": "ABC2024000001"}'
  efatura-mcp call search_invoices --args '{"status": "pending"}' --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVar(&callArgs, "args", "{}", "Tool arguments as a JSON object")
	callCmd.Flags().DurationVar(&callTimeout, "timeout", 2*time.Minute, "Overall call timeout")
}

func runCall(cmd *cobra.Command, args []string) error {
	if !json.Valid([]byte(callArgs)) {
		return fmt.Errorf("--args must be valid JSON")
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	printVerbose("Calling %s in %s mode\n", args[0], a.selection.Mode)

	res, err := a.registry.Call(ctx, args[0], json.RawMessage(callArgs))
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Println(res.Text)
	}

	if res.IsError() {
		return fmt.Errorf("%s failed (%s)", args[0], res.ErrorKind)
	}
	return nil
}
