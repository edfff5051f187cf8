// Package main provides a tool to seed the catalog with sample plants.
//
// It writes through the catalog service, so the search index is kept in
// step. Stop the server first: the search index allows one writer.
//
// Usage:
//
//	DATA_PATH=~/SeedCatalog/data go run ./cmd/seed
//	DATA_PATH=~/SeedCatalog/data go run ./cmd/seed --lots=false
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/seedcatalog/seedcatalog-server/internal/config"
	"github.com/seedcatalog/seedcatalog-server/internal/logger"
	"github.com/seedcatalog/seedcatalog-server/internal/search"
	"github.com/seedcatalog/seedcatalog-server/internal/service"
	"github.com/seedcatalog/seedcatalog-server/internal/store/sqlite"
)

var (
	envFile  = flag.String("env-file", ".env", "Path to .env file")
	withLots = flag.Bool("lots", true, "Also create a packet lot and a note per plant")
)

type samplePlant struct {
	plant service.PlantInput
	lot   service.PacketLotInput
	note  string
}

var samples = []samplePlant{
	{
		plant: service.PlantInput{
			BotanicalName:       "Solanum lycopersicum",
			CommonName:          "Tomato",
			Variety:             "Cherokee Purple",
			PlantType:           "Vegetable",
			LightRequirement:    "Full Sun",
			IndoorOutdoor:       "Outdoor",
			Description:         "Heirloom beefsteak with dusky rose fruit.",
			CulinaryUses:        "Slicing, sauces.",
			GrowingInstructions: "Start indoors 6-8 weeks before last frost. Stake or cage.",
		},
		lot:  service.PacketLotInput{LotCode: "TOM-CP-24", Quantity: 25},
		note: "Saved from the 2024 crop.",
	},
	{
		plant: service.PlantInput{
			BotanicalName:       "Ocimum basilicum",
			CommonName:          "Sweet Basil",
			Variety:             "Genovese",
			PlantType:           "Herb",
			LightRequirement:    "Full Sun",
			IndoorOutdoor:       "Both",
			CulinaryUses:        "Pesto, salads.",
			GrowingInstructions: "Sow after soil warms. Pinch flower buds.",
		},
		lot: service.PacketLotInput{LotCode: "BAS-GEN-23", Quantity: 200},
	},
	{
		plant: service.PlantInput{
			BotanicalName:    "Calendula officinalis",
			CommonName:       "Pot Marigold",
			PlantType:        "Flower",
			LightRequirement: "Full Sun",
			IndoorOutdoor:    "Outdoor",
			MedicinalUses:    "Petals used in salves.",
		},
		lot:  service.PacketLotInput{LotCode: "CAL-23", Quantity: 60},
		note: "Self-seeds readily.",
	},
	{
		plant: service.PlantInput{
			BotanicalName:    "Capsicum annuum",
			CommonName:       "Pepper",
			Variety:          "Jalapeño",
			PlantType:        "Vegetable",
			LightRequirement: "Full Sun",
			IndoorOutdoor:    "Outdoor",
		},
		lot: service.PacketLotInput{LotCode: "PEP-JAL-24", Quantity: 30},
	},
	{
		plant: service.PlantInput{
			BotanicalName:    "Mentha spicata",
			CommonName:       "Spearmint",
			PlantType:        "Herb",
			LightRequirement: "Partial Shade",
			IndoorOutdoor:    "Indoor",
			Notes:            "Keep in a pot, it spreads.",
		},
	},
	{
		plant: service.PlantInput{
			CommonName:       "Mystery squash",
			PlantType:        "Vegetable",
			LightRequirement: "Full Sun",
			Notes:            "Unlabeled packet from a seed swap. Try autofill.",
		},
		lot: service.PacketLotInput{Quantity: 8},
	},
}

func main() {
	flag.Parse()

	cfg, err := config.LoadFromEnv(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg := logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	fmt.Printf("Opening catalog at: %s\n", cfg.Data.DatabasePath())

	db, err := sqlite.Open(cfg.Data.DatabasePath(), lg.Component("sqlite"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	index, err := search.NewPlantIndex(search.Options{DataPath: cfg.Data.BasePath, Logger: lg.Component("search")})
	if err != nil {
		log.Fatalf("Failed to open search index (is the server running?): %v", err)
	}
	defer index.Close()

	searchService := service.NewSearchService(index, db, lg.Logger)
	catalog := service.NewCatalogService(db, searchService, db, lg.Logger)

	ctx := context.Background()
	created := 0
	for _, s := range samples {
		p, err := catalog.CreatePlant(ctx, s.plant)
		if err != nil {
			log.Printf("Failed to create %s: %v", s.plant.CommonName, err)
			continue
		}
		created++
		fmt.Printf("  %s (%s)\n", p.DisplayName(), p.ID)

		if !*withLots {
			continue
		}
		if s.lot != (service.PacketLotInput{}) {
			lot, err := catalog.CreatePacketLot(ctx, p.ID, s.lot)
			if err != nil {
				log.Printf("Failed to create lot for %s: %v", p.ID, err)
				continue
			}
			if s.note != "" {
				if _, err := catalog.AddNote(ctx, service.NoteInput{PlantID: p.ID, PacketLotID: lot.ID, Content: s.note}); err != nil {
					log.Printf("Failed to add note for %s: %v", p.ID, err)
				}
			}
		}
	}

	count, _ := searchService.DocumentCount()
	fmt.Printf("\nCreated %d plants; %d documents in the search index\n", created, count)
}
