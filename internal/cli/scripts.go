package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/awaken/internal/config"
	"github.com/opencode-ai/awaken/internal/scripts"
)

func init() {
	rootCmd.AddCommand(scriptsCmd)
	scriptsCmd.AddCommand(scriptsListCmd)
}

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "Manage presentation scripts",
}

var scriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available scripts",
	Long: `List scripts from the search paths and the builtins. When two scripts share
a name, the first one found wins:

  1. scripts.dir from config
  2. .awaken/scripts in the current directory
  3. ~/.config/awaken/scripts
  4. /usr/share/awaken/scripts
  5. builtin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			cfg = config.DefaultConfig()
		}
		items, err := scripts.LoadFromSearchPaths(scriptPaths(cfg))
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No scripts found.")
			return nil
		}
		return writeScriptTable(cmd.OutOrStdout(), cfg, items)
	},
}

func writeScriptTable(out io.Writer, cfg *config.Config, items []*scripts.Script) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTEPS\tROLE\tSOURCE\tDESCRIPTION")
	for _, item := range items {
		fmt.Fprintln(tw, strings.Join([]string{
			item.Name,
			strconv.Itoa(len(item.Steps)),
			scriptRole(cfg, item.Name),
			item.Source,
			item.Description,
		}, "\t"))
	}
	return tw.Flush()
}

func scriptRole(cfg *config.Config, name string) string {
	switch name {
	case cfg.Scripts.Intro:
		return "intro"
	case cfg.Scripts.Demo:
		return "demo"
	}
	return "-"
}
