package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"sid-reconciliation-service/internal/parsers"
	"sid-reconciliation-service/internal/samples"
)

func main() {
	var (
		outputDir  = flag.String("output-dir", "../generated", "Output directory for generated files")
		format     = flag.String("format", "xlsx", "File format: xlsx or csv")
		rows       = flag.Int("rows", 200, "Number of FIR case rows")
		matchRatio = flag.Float64("match-ratio", 0.75, "Share of FIR numbers that appear in a SID export")
		extraSID   = flag.Int("extra-sid", 20, "Number of SID case numbers without a FIR row")
		sources    = flag.Int("sid-sources", 2, "Number of SID export files")
		startDate  = flag.String("start-date", "01/01/2024", "First submission date (DD/MM/YYYY)")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("02/01/2006", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	write := samples.WriteWorkbook
	switch *format {
	case "xlsx":
	case "csv":
		write = samples.WriteCSV
	default:
		log.Fatalf("Unknown format: %s", *format)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	generator := &samples.Generator{
		Seed:       *seed,
		FIRRows:    *rows,
		MatchRatio: *matchRatio,
		ExtraSID:   *extraSID,
		SIDSources: *sources,
		StartDate:  start,
	}
	dataset, err := generator.Generate()
	if err != nil {
		log.Fatalf("Failed to generate dataset: %v", err)
	}

	var sidPaths []string
	for i, grid := range dataset.SID {
		path := filepath.Join(*outputDir, fmt.Sprintf("sid_%d.%s", i+1, *format))
		mustWrite(write, path, grid)
		sidPaths = append(sidPaths, path)
	}
	firPath := filepath.Join(*outputDir, "case."+*format)
	mustWrite(write, firPath, dataset.FIR)

	e := dataset.Expected
	fmt.Printf("Generated %d SID files and %s\n", len(sidPaths), firPath)
	fmt.Printf("fir-links-sid:   %d FIR rows, %d matched, %d pending\n", e.FirRows, e.FirMatched, e.FirRows-e.FirMatched)
	fmt.Printf("sid-used-in-fir: %d SID numbers, %d matched, %d pending\n", e.DistinctSID, e.SIDMatched, e.DistinctSID-e.SIDMatched)
	fmt.Printf("Seed used: %d\n", *seed)
}

func mustWrite(write func(string, parsers.Grid) error, path string, grid parsers.Grid) {
	if err := write(path, grid); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
}
