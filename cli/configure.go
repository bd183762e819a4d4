// ABOUTME: Interactive configuration command
// ABOUTME: Prompts for the Airtable base and token and writes the config file
package cli

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/jstnrme77/reportcard-portal/config"
	"golang.org/x/term"
)

// readSecret reads a line without echo when stdin is a terminal.
var readSecret = func() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(stdout) // New line after hidden input
	return strings.TrimSpace(string(b)), err
}

// ConfigureCommand asks for the connection details and saves them.
func ConfigureCommand(args []string) error {
	fs := flag.NewFlagSet("configure", flag.ExitOnError)
	path := fs.String("config", "", "Config file (default: XDG config dir)")
	baseID := fs.String("base-id", "", "Airtable base ID")
	demo := fs.Bool("demo", false, "Use the local demo store instead of Airtable")
	_ = fs.Parse(args)

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}

	if *demo {
		cfg.Demo = true
	} else {
		if *baseID == "" {
			fmt.Fprint(stdout, "Airtable base ID: ")
			if _, err := fmt.Scanln(baseID); err != nil {
				return fmt.Errorf("failed to read base ID: %w", err)
			}
		}
		cfg.AirtableBaseID = strings.TrimSpace(*baseID)

		fmt.Fprint(stdout, "Airtable token: ")
		token, err := readSecret()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		cfg.AirtableToken = token
		cfg.Demo = false
	}

	if status := cfg.Status(); !status.OK() {
		return fmt.Errorf("configuration incomplete: %s", status.Message)
	}

	target := *path
	if target == "" {
		target = config.Path()
	}
	if err := cfg.Save(target); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Configuration saved to %s\n", target)
	return nil
}
