package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/sgeproto/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	messageStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	requiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		interactive bool
		plain       bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the message types of the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadSchema(); err != nil {
				return err
			}
			reg, err := a.eng.Registry()
			if err != nil {
				return err
			}
			if interactive {
				return runBrowser(a.cfg.Schema, reg)
			}
			out := cmd.OutOrStdout()
			if plain || !isTerminal(out) {
				return a.eng.Describe(out)
			}
			_, err = io.WriteString(out, renderRegistry(reg))
			return err
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the schema in a terminal UI")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable styling")
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func renderRegistry(reg *schema.Registry) string {
	var b strings.Builder
	for i, m := range reg.Messages() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderMessage(m))
	}
	return b.String()
}

func renderMessage(m *schema.MessageDef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", messageStyle.Render(m.Name), helpStyle.Render(fmt.Sprintf("id %d", m.ID)))
	for _, f := range m.Fields {
		fmt.Fprintf(&b, "  %3d %s %s", f.Index, f.Name, typeStyle.Render(f.TypeString()))
		if f.Required() {
			b.WriteString(" " + requiredStyle.Render("required"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
