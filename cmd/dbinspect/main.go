// Package main dumps the Badger lookup cache backend.
//
// Usage:
//
//	DATA_PATH=~/SeedCatalog/data go run ./cmd/dbinspect
//	DATA_PATH=~/SeedCatalog/data go run ./cmd/dbinspect --payloads
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/seedcatalog/seedcatalog-server/internal/config"
	"github.com/seedcatalog/seedcatalog-server/internal/gbif"
	"github.com/seedcatalog/seedcatalog-server/internal/store"
)

var (
	envFile  = flag.String("env-file", ".env", "Path to .env file")
	payloads = flag.Bool("payloads", false, "Print raw payloads")
	limit    = flag.Int("limit", 20, "Entries to print per family, 0 for all")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadFromEnv(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	s, err := store.New(cfg.Data.BadgerPath(), nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	fmt.Println("=== Lookup Cache Inspection ===")
	fmt.Println()

	printed := map[string]int{}
	err = s.EachCacheEntry(ctx, func(key string, value []byte) error {
		family, _, _ := strings.Cut(strings.TrimPrefix(key, "gbif:"), ":")
		printed[family]++
		if *limit > 0 && printed[family] > *limit {
			return nil
		}

		fmt.Println(key)
		switch family {
		case "match":
			var entry store.CachedNameMatch
			if err := json.Unmarshal(value, &entry); err != nil {
				fmt.Printf("  unreadable entry: %v\n", err)
				return nil
			}
			fmt.Printf("  query:     %q\n", entry.Query)
			fmt.Printf("  retrieved: %s\n", entry.RetrievedAt.Format("2006-01-02 15:04:05"))
			if m, err := gbif.ParseNameMatch(entry.Payload); err == nil && m.UsageKey > 0 {
				fmt.Printf("  match:     %d %s (%s, %.0f%%)\n", m.UsageKey, m.ScientificName, m.MatchType, m.Confidence*100)
			} else {
				fmt.Println("  match:     none")
			}
			if *payloads {
				fmt.Printf("  payload:   %s\n", entry.Payload)
			}

		case "species":
			var entry store.CachedSpeciesDetails
			if err := json.Unmarshal(value, &entry); err != nil {
				fmt.Printf("  unreadable entry: %v\n", err)
				return nil
			}
			fmt.Printf("  usage key: %d\n", entry.UsageKey)
			fmt.Printf("  retrieved: %s\n", entry.RetrievedAt.Format("2006-01-02 15:04:05"))
			if d, err := gbif.ParseSpeciesDetails(entry.DetailsPayload); err == nil {
				fmt.Printf("  name:      %s (%s)\n", d.ScientificName, d.Taxonomy.Family)
			}
			names, _ := gbif.ParseVernacularNames(entry.VernacularPayload)
			fmt.Printf("  common:    %s\n", strings.Join(names, ", "))
			if *payloads {
				fmt.Printf("  details:   %s\n", entry.DetailsPayload)
			}
		}
		fmt.Println()
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	stats, err := s.LookupCacheStats(ctx)
	if err != nil {
		log.Fatalf("Failed to count entries: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Name matches:    %d\n", stats.NameMatches)
	fmt.Printf("Species details: %d\n", stats.SpeciesDetails)
}
