package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"explain/internal/applog"
	"explain/internal/binview"
	"explain/internal/explain"
	"explain/internal/ui/window"
)

var watchCmd = &cobra.Command{
	Use:   "watch [binary] [file]",
	Short: "Follow a file of addresses and explain each as it arrives",
	Long: `Watch tails a text file containing one hex address per line (for
example a log written by a debugger hook) and prints an explanation for
every new line. It keeps running until interrupted.`,
	Example: `
# Explain addresses as a tracer appends them
explain watch /path/to/binary /tmp/trace.log
  `,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		applog.Setup(debug)
		os.Setenv("EXPLAIN_NO_TUI", "1")

		view, err := binview.OpenELF(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %v", args[0], err)
		}
		defer view.Close()

		t, err := tail.TailFile(args[1], tail.Config{
			Follow: true,
			ReOpen: true,
			Logger: tail.DiscardingLogger,
		})
		if err != nil {
			return fmt.Errorf("tail %s: %v", args[1], err)
		}
		defer t.Cleanup()

		session := explain.NewSession(view)
		win := window.NewTextWindow(os.Stdout)
		ctx := cmd.Context()

		for {
			select {
			case <-ctx.Done():
				t.Stop()
				return nil

			case line, ok := <-t.Lines:
				if !ok {
					return t.Err()
				}
				if line.Err != nil {
					slog.Warn("Tail read error", "error", line.Err)
					continue
				}
				text := strings.TrimSpace(line.Text)
				if text == "" {
					continue
				}
				addr, err := parseAddr(text)
				if err != nil {
					slog.Warn("Skipping unparsable line", "line", text)
					continue
				}
				bundle, err := session.Explain(addr)
				if err != nil {
					slog.Error("Explanation failed", "addr", text, "error", err)
					continue
				}
				win.Display(bundle)
				if err := win.Show(); err != nil {
					return err
				}
				fmt.Println()
			}
		}
	},
}
