// Package main is the deckcheck command line tool. It evaluates a text deck
// list for format legality and bracket placement without running the API
// server, reading the same card snapshot the server uses.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pioneerdh/deckcheck/internal/bracket"
	"github.com/pioneerdh/deckcheck/internal/cards/refresh"
	"github.com/pioneerdh/deckcheck/internal/cards/scryfall"
	"github.com/pioneerdh/deckcheck/internal/cardstore"
	"github.com/pioneerdh/deckcheck/internal/config"
	"github.com/pioneerdh/deckcheck/internal/decklist"
	"github.com/pioneerdh/deckcheck/internal/legality"
	"github.com/pioneerdh/deckcheck/internal/moxfield"
	"github.com/pioneerdh/deckcheck/internal/rules"
	"github.com/pioneerdh/deckcheck/internal/storage"
)

var (
	dbPath     = flag.String("db-path", "", "Database path (default: ~/.deckcheck/cards.db)")
	rulesDir   = flag.String("rules-dir", "", "Directory with rule list overrides")
	jsonOut    = flag.Bool("json", false, "Print results as JSON")
	fetch      = flag.Bool("fetch", false, "Download card data if the local snapshot is missing or stale")
	powerScore = flag.Float64("power-score", -1, "External power score for the bracket recommendation")
	moxfieldID = flag.String("moxfield", "", "Evaluate a public Moxfield deck instead of a local file")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <decklist-file>\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "Reads a deck list (main deck, blank line, commander) from the file,")
	fmt.Fprintln(os.Stderr, "or from stdin when the file is \"-\".")
	fmt.Fprintln(os.Stderr, "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "deckcheck: %v\n", err)
		os.Exit(1)
	}
}

// result is the combined CLI output.
type result struct {
	Verdict *legality.Verdict `json:"verdict"`
	Bracket *bracket.Analysis `json:"bracket"`
}

func run() error {
	ctx := context.Background()

	deck, err := readDeck(ctx)
	if err != nil {
		return err
	}

	store, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if store.Len() == 0 {
		return fmt.Errorf("card snapshot is empty; run with -fetch to download it")
	}

	ruleService, err := rules.NewService(*rulesDir)
	if err != nil {
		return err
	}

	catalogs, err := bracket.CatalogsFromDir(*rulesDir)
	if err != nil {
		return err
	}

	engine := legality.NewEngine(store, ruleService)
	classifier := bracket.NewClassifier(catalogs)

	var score *float64
	if *powerScore >= 0 {
		score = powerScore
	}

	res := &result{
		Verdict: engine.Evaluate(deck),
		Bracket: classifier.Classify(deck.Names(), score),
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printVerdict(res.Verdict)
	fmt.Println()
	printBracket(res.Bracket)

	if !res.Verdict.Legal {
		os.Exit(2)
	}
	return nil
}

// readDeck loads the deck list from the Moxfield API, a file, or stdin.
func readDeck(ctx context.Context) (*decklist.DeckList, error) {
	if *moxfieldID != "" {
		return moxfield.NewClient(nil).GetDeck(ctx, *moxfieldID)
	}

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	var raw []byte
	var err error
	if flag.Arg(0) == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(flag.Arg(0))
	}
	if err != nil {
		return nil, err
	}

	return decklist.Parse(string(raw))
}

// openStore opens the snapshot database and loads it into memory,
// optionally refreshing from Scryfall first.
func openStore(ctx context.Context) (*cardstore.Store, func(), error) {
	dbFile := *dbPath
	if dbFile == "" {
		var err error
		dbFile, err = config.DefaultDatabasePath()
		if err != nil {
			return nil, nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbFile), 0o755); err != nil {
		return nil, nil, err
	}

	dbConfig := storage.DefaultConfig(dbFile)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = db.Close() }

	service := storage.NewService(db)
	store := cardstore.New()

	records, err := service.LoadAll(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	store.Replace(records)

	if *fetch {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		refresher := refresh.New(scryfall.NewClient(), service, store, logger, 0)
		if err := refresher.EnsureFresh(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	return store, cleanup, nil
}

func printVerdict(v *legality.Verdict) {
	if v.Legal {
		fmt.Printf("LEGAL (%d cards)\n", v.DeckSize)
		return
	}

	fmt.Printf("NOT LEGAL (%d cards)\n", v.DeckSize)
	for _, issue := range []*string{
		v.Issues.Size,
		v.Issues.Commander,
		v.Issues.CommanderType,
		v.Issues.ColorIdentity,
		v.Issues.Singleton,
		v.Issues.IllegalCards,
	} {
		if issue != nil {
			fmt.Printf("  - %s\n", *issue)
		}
	}
	if len(v.IllegalCards) > 0 {
		fmt.Printf("  illegal cards: %s\n", strings.Join(v.IllegalCards, ", "))
	}
	if len(v.ColorIdentityViolations) > 0 {
		fmt.Printf("  color identity violations: %s\n", strings.Join(v.ColorIdentityViolations, ", "))
	}
	if len(v.NonSingletonCards) > 0 {
		fmt.Printf("  non-singleton cards: %s\n", strings.Join(v.NonSingletonCards, ", "))
	}
}

func printBracket(a *bracket.Analysis) {
	fmt.Printf("Bracket: minimum %d, recommended %d\n", a.MinimumBracket, a.RecommendedBracket)
	fmt.Printf("  %s\n", a.Details.MinimumBracketReason)
	fmt.Printf("  %s\n", a.Details.RecommendedBracketReason)

	printList := func(label string, names []string) {
		if len(names) > 0 {
			fmt.Printf("  %s: %s\n", label, strings.Join(names, ", "))
		}
	}
	printList("mass land denial", a.MassLandDenial)
	printList("extra turns", a.ExtraTurns)
	printList("tutors", a.Tutors)
	printList("game changers", a.GameChangers)
	for _, combo := range a.TwoCardCombos {
		marker := ""
		if combo.IsEarlyGame {
			marker = " (early game)"
		}
		fmt.Printf("  combo: %s + %s%s\n", combo.Cards[0], combo.Cards[1], marker)
	}
}
