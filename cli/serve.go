// ABOUTME: Web portal and TUI subcommands
// ABOUTME: Starts the HTTP server or the terminal dashboard over the same store
package cli

import (
	"flag"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/tui"
	"github.com/jstnrme77/reportcard-portal/web"
)

// ServeCommand starts the web portal
func ServeCommand(deps web.Deps, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 0, "Port to listen on (default from config)")
	_ = fs.Parse(args)

	if *port == 0 && deps.Config != nil {
		*port = deps.Config.Port
	}

	server, err := web.NewServer(deps)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	return server.Start(*port)
}

// TUICommand runs the terminal dashboard
func TUICommand(p *portal.Portal, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	_ = fs.Parse(args)

	m := tui.NewModel(p)
	defer m.Close()

	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
