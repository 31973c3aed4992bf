package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"explain/internal/applog"
	"explain/internal/binview"
	"explain/internal/explain"
	"explain/internal/ui/window"
)

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Print explanations without the TUI")
	rootCmd.Flags().StringP("addr", "a", "", "Explain the instruction at this address and exit")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
}

var rootCmd = &cobra.Command{
	Use:   "explain [binary]",
	Short: "Explain disassembled instructions in plain English",
	Long: `Explain lifts single machine instructions to an intermediate language
and translates them into natural-language descriptions. Without --addr it
opens an interactive browser over the binary's functions.`,
	Example: `
# Browse a binary interactively
explain /path/to/binary

# Explain one instruction and exit
explain --addr 0x401000 /path/to/binary
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		applog.Setup(debug)

		absPath, err := pathpkg.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %v", err)
		}
		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", args[0])
			}
			return fmt.Errorf("cannot access file: %v", err)
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")

		// Piped output never gets the TUI or ANSI colors.
		if !term.IsTerminal(os.Stdout.Fd()) {
			noTUI = true
			os.Setenv("EXPLAIN_NO_COLOR", "1")
		}
		if noTUI {
			os.Setenv("EXPLAIN_NO_TUI", "1")
		}

		addrFlag, _ := cmd.Flags().GetString("addr")
		if addrFlag != "" {
			addr, err := parseAddr(addrFlag)
			if err != nil {
				return err
			}
			return explainOnce(absPath, addr)
		}

		if noTUI {
			return fmt.Errorf("interactive mode needs a terminal; use --addr or the run subcommand")
		}

		program := tea.NewProgram(
			newBrowseModel(absPath),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

// parseAddr accepts the address forms users paste from disassembler
// output: "0x401000", "401000" (hex), or a trailing-colon variant.
func parseAddr(s string) (uint64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(s)), ":")
	s = strings.TrimPrefix(s, "0x")
	addr, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: expected a hex address like 0x401000", s)
	}
	return addr, nil
}

// explainOnce opens the binary, explains a single address, and shows
// the result through whichever window fits the terminal.
func explainOnce(path string, addr uint64) error {
	view, err := binview.OpenELF(path)
	if err != nil {
		return fmt.Errorf("open %s: %v", path, err)
	}
	defer view.Close()

	session := explain.NewSession(view)
	bundle, err := session.Explain(addr)
	if err != nil {
		return err
	}

	win := window.New()
	win.Display(bundle)
	return win.Show()
}

func Execute() {
	// Check if --no-tui or --addr is present, or if output is being
	// piped, to bypass fang's markdown rendering.
	noTUI := false
	for _, arg := range os.Args[1:] {
		if arg == "--no-tui" || arg == "-n" || arg == "--addr" || arg == "-a" {
			noTUI = true
			break
		}
	}

	if !noTUI && !term.IsTerminal(os.Stdout.Fd()) {
		noTUI = true
	}

	if noTUI {
		// Use cobra directly to avoid fang's automatic markdown rendering
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
	} else {
		if err := fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		); err != nil {
			os.Exit(1)
		}
	}
}
