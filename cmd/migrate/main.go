// ABOUTME: Snapshot utility copying an Airtable base into a local portal database.
// ABOUTME: Provides dry-run and backup capabilities so demo mode can run on real data offline.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jstnrme77/reportcard-portal/airtable"
	"github.com/jstnrme77/reportcard-portal/collection"
	"github.com/jstnrme77/reportcard-portal/config"
	"github.com/jstnrme77/reportcard-portal/db"
	"github.com/jstnrme77/reportcard-portal/models"
)

// copyOrder lists tables so that linked records are copied before the records pointing at them.
var copyOrder = []string{
	models.TableCampaigns,
	models.TableOpportunities,
	models.TableClients,
	models.TableUsers,
	models.TableLinks,
	models.TableApprovals,
	models.TableReports,
}

type options struct {
	dryRun bool
	force  bool
}

func main() {
	dbPath := flag.String("db", "", "Path to the local database (default: demo database path)")
	configPath := flag.String("config", "", "Config file with Airtable credentials")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before copying")
	force := flag.Bool("force", false, "Replace records in tables that already hold data")
	flag.Parse()

	cfg, err := config.Load(*configPath, config.EnvFiles...)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath == "" {
		*dbPath = cfg.DBPath
	}

	src, err := airtable.New(airtable.Config{
		Token:    cfg.AirtableToken,
		BaseID:   cfg.AirtableBaseID,
		Endpoint: cfg.AirtableEndpoint,
		Timeout:  cfg.Timeout(),
	})
	if err != nil {
		log.Fatalf("Failed to create Airtable client: %v", err)
	}

	if *backup && !*dryRun {
		if err := backupFile(*dbPath); err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
	}

	database, err := db.OpenDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	counts, err := migrate(context.Background(), src, db.NewRecordStore(database), options{dryRun: *dryRun, force: *force})
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	for _, table := range copyOrder {
		log.Printf("%s: %d records", table, counts[table])
	}
	log.Println("Migration completed successfully")
}

func backupFile(path string) error {
	input, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	log.Printf("Backup created successfully")
	return nil
}

// migrate copies every portal table from src into dst. Record IDs are reassigned
// by dst, so linked-record fields are rewritten to the new IDs.
func migrate(ctx context.Context, src collection.Store, dst *db.RecordStore, opts options) (map[string]int, error) {
	counts := make(map[string]int)
	idMap := make(map[string]string)

	if !opts.dryRun {
		if err := dst.EnsureCollections(ctx, models.PortalTables...); err != nil {
			return nil, err
		}
	}

	for _, table := range copyOrder {
		records, err := src.List(ctx, table, nil)
		if err != nil {
			return counts, fmt.Errorf("failed to read %s: %w", table, err)
		}

		existing, err := dst.List(ctx, table, nil)
		if err != nil && !errors.Is(err, db.ErrCollectionNotFound) {
			return counts, fmt.Errorf("failed to check %s: %w", table, err)
		}

		if opts.dryRun {
			log.Printf("[DRY RUN] %s: would copy %d records (%d already present)", table, len(records), len(existing))
			counts[table] = len(records)
			continue
		}

		if len(existing) > 0 {
			if !opts.force {
				return counts, fmt.Errorf("%s already holds %d records; use -force to replace them", table, len(existing))
			}
			for _, rec := range existing {
				if _, err := dst.Remove(ctx, table, rec.ID); err != nil {
					return counts, fmt.Errorf("failed to clear %s: %w", table, err)
				}
			}
			log.Printf("Cleared %d records from %s", len(existing), table)
		}

		for _, rec := range records {
			created, err := dst.Create(ctx, table, remapLinks(rec.Fields, idMap))
			if err != nil {
				return counts, fmt.Errorf("failed to copy %s/%s: %w", table, rec.ID, err)
			}
			idMap[rec.ID] = created.ID
			counts[table]++
		}
	}

	return counts, nil
}

// remapLinks replaces record IDs inside linked-record lists with their copies.
func remapLinks(fields map[string]any, idMap map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		list, ok := v.([]any)
		if !ok {
			out[k] = v
			continue
		}
		mapped := make([]any, len(list))
		for i, item := range list {
			if id, ok := item.(string); ok {
				if newID, found := idMap[id]; found {
					mapped[i] = newID
					continue
				}
			}
			mapped[i] = item
		}
		out[k] = mapped
	}
	return out
}
