package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reyhansunduk/efatura-mcp-server/internal/credentials"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show which backend the server would use",
	Long: `Resolve the configuration exactly as "serve" does and show the result.

Shows:
  - Selected mode (demo, test, production)
  - GİB endpoint for real modes
  - Masked username and whether a password is set
  - Why demo mode was chosen, if it was

Examples:
  efatura-mcp info
  efatura-mcp info --env-file prod.env`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools offered to assistants",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(toolsCmd)
}

// InfoOutput describes the resolved backend
type InfoOutput struct {
	Mode        string   `json:"mode"`
	Endpoint    string   `json:"endpoint,omitempty"`
	Environment string   `json:"environment,omitempty"`
	Username    string   `json:"username,omitempty"`
	PasswordSet bool     `json:"password_set"`
	Timeout     string   `json:"timeout"`
	AutoSign    bool     `json:"auto_sign"`
	Warnings    []string `json:"warnings,omitempty"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	out := InfoOutput{
		Mode:        string(a.selection.Mode),
		Endpoint:    a.selection.Endpoint,
		Environment: a.cfg.DeclaredEnvironment,
		Username:    credentials.Mask(a.cfg.Credentials.Username),
		PasswordSet: a.cfg.Credentials.Password != "",
		Timeout:     a.cfg.Timeout.String(),
		AutoSign:    a.cfg.AutoSign,
	}
	for _, w := range a.selection.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}

	fmt.Printf("Mode: %s\n", out.Mode)
	if out.Endpoint != "" {
		fmt.Printf("  Endpoint: %s\n", out.Endpoint)
	}
	fmt.Printf("  Environment: %s\n", valueOr(out.Environment, "(not set)"))
	fmt.Printf("  Username: %s\n", valueOr(out.Username, "(not set)"))
	fmt.Printf("  Password set: %t\n", out.PasswordSet)
	fmt.Printf("  Timeout: %s\n", out.Timeout)
	fmt.Printf("  Auto sign: %t\n", out.AutoSign)
	for _, w := range out.Warnings {
		fmt.Printf("  ⚠ %s\n", w)
	}
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	list := a.registry.Tools()
	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(list)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tREQUIRED\tDESCRIPTION")
	fmt.Fprintln(w, "----\t--------\t-----------")
	for _, t := range list {
		required := "-"
		if len(t.InputSchema.Required) > 0 {
			required = fmt.Sprintf("%d", len(t.InputSchema.Required))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, required, t.Description)
	}
	return w.Flush()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
