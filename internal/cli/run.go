package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"explain/internal/applog"
	"explain/internal/binview"
	"explain/internal/explain"
	"explain/internal/ui/window"
)

var runCmd = &cobra.Command{
	Use:   "run [binary] [address...]",
	Short: "Explain one or more addresses non-interactively",
	Long: `Run explains each given address in non-interactive mode and exits.
Addresses are hex, with or without the 0x prefix.`,
	Example: `
# Explain a single instruction
explain run /path/to/binary 0x401000

# Explain several at once
explain run /path/to/binary 401000 401004 401008
  `,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		applog.Setup(debug)
		os.Setenv("EXPLAIN_NO_TUI", "1")

		view, err := binview.OpenELF(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %v", args[0], err)
		}
		defer view.Close()

		session := explain.NewSession(view)
		win := window.NewTextWindow(os.Stdout)

		var firstErr error
		for i, raw := range args[1:] {
			addr, err := parseAddr(raw)
			if err != nil {
				return err
			}
			bundle, err := session.Explain(addr)
			if err != nil {
				slog.Error("Explanation failed", "addr", raw, "error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if i > 0 {
				fmt.Println()
			}
			win.Display(bundle)
			if err := win.Show(); err != nil {
				return err
			}
		}
		return firstErr
	},
}
