package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"precedent/internal/bootstrap"
	"precedent/internal/config"
	"precedent/internal/core/domain"
	"precedent/internal/observability/logging"
)

func main() {
	categoryFlag := flag.String("category", "civil", "case category: civil, criminal or traffic")
	kFlag := flag.Int("k", 0, "number of results (defaults to RETRIEVAL_TOP_K)")
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: search [-category civil|criminal|traffic] [-k N] <query text>")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger("search", cfg.LogLevel)

	category, err := domain.ParseCategory(*categoryFlag)
	if err != nil {
		log.Fatalf("invalid category: %v", err)
	}
	k := *kFlag
	if k <= 0 {
		k = cfg.RetrievalTopK
	}

	app, err := bootstrap.New(cfg, logger, "search")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := app.Manager.Initialize(ctx); err != nil {
		log.Fatalf("initialize error: %v", err)
	}

	records, err := app.Retriever.Retrieve(ctx, query, category, k)
	if err != nil {
		log.Fatalf("retrieve error: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("no matching precedents")
		return
	}

	for i, record := range records {
		fmt.Printf("%d. %s\n", i+1, record.Title)
		if record.CaseID != "" {
			fmt.Printf("   case: %s\n", record.CaseID)
		}
		if record.Verdict != "" {
			fmt.Printf("   verdict: %s\n", record.Verdict)
		}
		fmt.Println()
	}
}
