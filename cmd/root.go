package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the flowgate application
var rootCmd = &cobra.Command{
	Use:   "flowgate",
	Short: "OAuth-gated MCP gateway for n8n workflow automation",
	Long: `flowgate exposes n8n workflow management to MCP clients over SSE,
behind an embedded OAuth 2.1 authorization server.

AI assistants authenticate with the authorization-code flow (PKCE
required), open an event stream at /mcp, and call workflow tools that
flowgate bridges to the configured n8n instance.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "flowgate version %s\n" .Version}}`)

	// The gateway is the whole point; run it when no subcommand is given.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("flowgate version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
