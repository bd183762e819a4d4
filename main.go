// ABOUTME: Entry point for the ReportCard portal
// ABOUTME: Routes to the web server, TUI, MCP server or CLI commands based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jstnrme77/reportcard-portal/airtable"
	"github.com/jstnrme77/reportcard-portal/charm"
	"github.com/jstnrme77/reportcard-portal/cli"
	"github.com/jstnrme77/reportcard-portal/collection"
	"github.com/jstnrme77/reportcard-portal/config"
	"github.com/jstnrme77/reportcard-portal/db"
	"github.com/jstnrme77/reportcard-portal/models"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/sample"
	"github.com/jstnrme77/reportcard-portal/schema"
	"github.com/jstnrme77/reportcard-portal/web"
)

const version = "0.1.0"

// localBaseID names the demo store's schema.
const localBaseID = "local"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/reportcard/config.json)")
	dbPath := flag.String("db-path", "", "Demo database path (default: ~/.local/share/reportcard/portal.db)")
	demo := flag.Bool("demo", false, "Serve sample data from the local database instead of Airtable")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	// Handle version flag
	if *showVersion {
		fmt.Printf("reportcard version %s\n", version)
		os.Exit(0)
	}

	// Get remaining args after flags
	args := flag.Args()

	// If no command specified, show usage
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	// Route to top-level command
	command := args[0]
	commandArgs := args[1:]

	// These don't need a record store
	switch command {
	case "configure":
		if err := cli.ConfigureCommand(append([]string{"--config", *configPath}, commandArgs...)); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	case "settings":
		runSettings(commandArgs)
		return
	}

	cfg, err := config.Load(*configPath, config.EnvFiles...)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *demo {
		cfg.Demo = true
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	store, baseID, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer closeStore()

	open := portal.NewOpener(store, nil)
	p := open()
	inspector := schema.NewInspector(store)

	switch command {
	case "serve":
		deps := web.Deps{
			Store:     store,
			Config:    cfg,
			Inspector: inspector,
		}
		if settings, err := openCharm(); err != nil {
			log.Printf("Settings storage unavailable: %v", err)
		} else {
			deps.Settings = settings
		}
		if err := cli.ServeCommand(deps, commandArgs); err != nil {
			log.Fatalf("Web server failed: %v", err)
		}

	case "tui":
		if err := cli.TUICommand(p, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "mcp":
		if err := cli.MCPCommand(store, open, inspector, baseID, version); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "graph":
		if err := cli.GraphCommand(p, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "portal":
		if len(commandArgs) == 0 {
			fmt.Println("Error: portal requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		portalCommand := commandArgs[0]
		portalArgs := commandArgs[1:]

		var err error
		switch portalCommand {
		case "list-approvals":
			err = cli.ListApprovalsCommand(p, portalArgs)
		case "approve":
			err = cli.ApproveCommand(p, portalArgs)
		case "reject":
			err = cli.RejectCommand(p, portalArgs)
		case "list-links":
			err = cli.ListLinksCommand(p, portalArgs)
		case "list-reports":
			err = cli.ListReportsCommand(p, portalArgs)
		case "add-report":
			err = cli.AddReportCommand(p, portalArgs)
		case "summary":
			err = cli.SummaryCommand(p, portalArgs)
		case "schema":
			err = cli.SchemaCommand(inspector, baseID, portalArgs)
		default:
			fmt.Printf("Unknown portal command: %s\n\n", portalCommand)
			printUsage()
			os.Exit(1)
		}
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// openStore returns the remote Airtable client, or the seeded local database in demo mode.
func openStore(cfg *config.Config) (collection.Store, string, func(), error) {
	if !cfg.Demo {
		if status := cfg.Status(); !status.OK() {
			return nil, "", nil, fmt.Errorf("%s (run 'reportcard configure' or pass --demo)", status.Message)
		}
		client, err := airtable.New(airtable.Config{
			Token:    cfg.AirtableToken,
			BaseID:   cfg.AirtableBaseID,
			Endpoint: cfg.AirtableEndpoint,
			Timeout:  cfg.Timeout(),
		})
		if err != nil {
			return nil, "", nil, err
		}
		return client, client.BaseID(), func() {}, nil
	}

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, "", nil, err
	}
	closeDB := func() { _ = database.Close() }

	ctx := context.Background()
	store := db.NewRecordStore(database)
	if err := store.EnsureCollections(ctx, models.PortalTables...); err != nil {
		closeDB()
		return nil, "", nil, err
	}
	if _, err := (sample.Provider{}).Seed(ctx, store); err != nil {
		closeDB()
		return nil, "", nil, fmt.Errorf("failed to seed sample data: %w", err)
	}

	log.Printf("Demo database: %s", cfg.DBPath)
	return store, localBaseID, closeDB, nil
}

func openCharm() (*charm.Client, error) {
	charmCfg, err := charm.LoadConfig()
	if err != nil {
		return nil, err
	}
	return charm.NewClient(charmCfg)
}

func runSettings(args []string) {
	if len(args) == 0 {
		fmt.Println("Error: settings requires a subcommand")
		printUsage()
		os.Exit(1)
	}

	client, err := openCharm()
	if err != nil {
		log.Fatalf("Failed to open settings storage: %v", err)
	}

	sub := args[0]
	subArgs := args[1:]
	commands := map[string]func(*charm.Client, []string) error{
		"show":   charm.SettingsShowCommand,
		"set":    charm.SettingsSetCommand,
		"status": charm.SettingsStatusCommand,
		"sync":   charm.SettingsSyncCommand,
		"auto":   charm.SettingsAutoSyncCommand,
		"reset":  charm.SettingsResetCommand,
	}
	run, ok := commands[sub]
	if !ok {
		fmt.Printf("Unknown settings command: %s\n\n", sub)
		printUsage()
		os.Exit(1)
	}
	if err := run(client, subArgs); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`reportcard v%s - Client reporting portal

USAGE:
  reportcard [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/reportcard/config.json)
  --db-path <path>       Demo database path (default: ~/.local/share/reportcard/portal.db)
  --demo                 Use sample data in a local database instead of Airtable

COMMANDS:
  serve                  Start the web portal
    --port <n>             Port (default: 3000 or REPORTCARD_PORT)
  tui                    Interactive terminal dashboard
  mcp                    Start MCP server for Claude Desktop
  configure              Save Airtable credentials
    --base-id <id>         Airtable base ID (prompted when omitted)
    --demo                 Save demo mode instead
  graph                  Campaign link map
    --format <fmt>         dot, svg or png (default: dot)
    --output <file>        Output file (default: stdout)

PORTAL COMMANDS:
  reportcard portal list-approvals [--status <s>]
  reportcard portal approve <id>
  reportcard portal reject --comments <text> <id>
  reportcard portal list-links [--month <m>] [--service <s>] [--opportunity reserved|recycled]
  reportcard portal list-reports [--month <m>] [--service <s>]
  reportcard portal add-report --month <YYYY-MM> [--service <s>] [--notes <text>] [--file <path>]
  reportcard portal summary
  reportcard portal schema [--refresh]

  Month selectors: all, current, YYYY-MM, or 0-11 for a month of any year.
  Note: flags must come before the record ID

SETTINGS COMMANDS:
  reportcard settings show
  reportcard settings set [--email-alerts=false] [--dark-mode] [--name <n>] ...
  reportcard settings status
  reportcard settings sync
  reportcard settings auto --enable|--disable
  reportcard settings reset --confirm

ENVIRONMENT:
  AIRTABLE_TOKEN, AIRTABLE_BASE_ID    Credentials (also read from .env.local and .env)
  REPORTCARD_DEMO, REPORTCARD_PORT    Demo mode and web port

EXAMPLES:
  # Try the portal with sample data
  reportcard --demo serve

  # Approve a placement from the terminal
  reportcard portal approve recXXXXXXXX

`, version)
}
