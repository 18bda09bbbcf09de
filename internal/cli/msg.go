package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var msgPrefix = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("4")).
	Render("conductorctl:")

// msgf prints one prefixed operator-facing line to the command's stdout.
func msgf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", msgPrefix, fmt.Sprintf(format, args...))
}
