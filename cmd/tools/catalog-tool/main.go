// cmd/tools/catalog-tool/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"stayease/internal/catalog"
	"stayease/internal/common/config"
	"stayease/internal/common/database"
	"stayease/internal/common/logger"
	"stayease/internal/search"
	"stayease/pkg/catalogfile"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	indexCmd := flag.NewFlagSet("index", flag.ExitOnError)

	exportPath := exportCmd.String("out", "configs/catalog.json", "Path of the seed file to write")
	validatePath := validateCmd.String("path", "configs/catalog.json", "Path of the seed file to check")
	indexPath := indexCmd.String("path", "", "Seed file to index (generated catalog when empty)")
	indexConfig := indexCmd.String("config", "", "Config file (default lookup when empty)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		c := catalog.Generate()
		if err := catalogfile.Save(*exportPath, c.All()); err != nil {
			fmt.Printf("Error exporting catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %d listings to %s\n", c.Len(), *exportPath)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		c, err := catalogfile.LoadCatalog(*validatePath)
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog validation passed: %d listings.\n", c.Len())

	case "index":
		indexCmd.Parse(os.Args[2:])
		n, err := indexCatalog(*indexConfig, *indexPath)
		if err != nil {
			fmt.Printf("Error indexing catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d listings.\n", n)

	case "help":
		fallthrough
	default:
		help()
	}
}

func indexCatalog(configPath, seedPath string) (int, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load config: %w", err)
	}

	c := catalog.Generate()
	if seedPath != "" {
		if c, err = catalogfile.LoadCatalog(seedPath); err != nil {
			return 0, err
		}
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := es.Ping(ctx); err != nil {
		return 0, err
	}

	log := logger.NewStructured(cfg.Logging.Level, "console", "stderr")
	sc := search.New(es.Client, cfg.Search.Index, log)
	if err := sc.EnsureIndex(ctx); err != nil {
		return 0, err
	}
	if err := sc.IndexCatalog(ctx, c.All()); err != nil {
		return 0, err
	}
	return c.Len(), nil
}

func help() {
	fmt.Println("Usage: catalog-tool <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  export    Write the generated catalog as a seed file")
	fmt.Println("            Options: -out")
	fmt.Println("  validate  Check a seed file against the schema and catalog rules")
	fmt.Println("            Options: -path")
	fmt.Println("  index     Bulk-index a catalog into Elasticsearch")
	fmt.Println("            Options: -path, -config")
	fmt.Println("  help      Show this help message")
}
