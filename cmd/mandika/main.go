// Command mandika is the market vendor's pocket assistant: price lookups,
// haggling advice and term-preserving translation from one terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mandika-app/mandika/internal/advisor"
	"github.com/mandika-app/mandika/internal/assistant"
	"github.com/mandika-app/mandika/internal/config"
	"github.com/mandika-app/mandika/internal/health"
	"github.com/mandika-app/mandika/internal/journal"
	"github.com/mandika-app/mandika/internal/kv"
	"github.com/mandika-app/mandika/internal/observe"
	"github.com/mandika-app/mandika/internal/resilience"
	"github.com/mandika-app/mandika/pkg/lang"
	"github.com/mandika-app/mandika/pkg/translator"
	"github.com/mandika-app/mandika/pkg/translator/mock"
	"github.com/mandika-app/mandika/pkg/translator/phrasebook"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (empty uses built-in defaults)")
	catalogPath := flag.String("catalog", "", "YAML price sheet, overriding the configured catalog")
	storeKind := flag.String("store", "", "slot store kind (memory, file or sqlite), overriding the config")
	listenAddr := flag.String("listen", "", "address for the health and metrics endpoints, overriding the config")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "mandika: config file %q not found — run without -config to use the built-in defaults\n", *configPath)
			} else {
				fmt.Fprintf(os.Stderr, "mandika: %v\n", err)
			}
			return 1
		}
	}
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}
	if *storeKind != "" {
		cfg.Store.Kind = config.StoreKind(*storeKind)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	// Flag overrides bypass Load, so re-check the combined result.
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "mandika: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("mandika starting",
		"store", cfg.Store.Kind,
		"backend", cfg.Translation.Backend.Name,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	telemetry, err := observe.Setup(observe.WithServiceName("mandika"))
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Slot store ────────────────────────────────────────────────────────────
	// Built here rather than inside the assistant so the readiness probe can
	// share the same handle.
	store, err := openStore(cfg.Store)
	if err != nil {
		slog.Error("failed to open slot store", "err", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("store close error", "err", err)
		}
	}()

	// ── Translation backend ───────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinBackends(reg)

	backend, err := reg.CreateBackend(cfg.Translation.Backend)
	if err != nil {
		slog.Error("failed to create translation backend", "err", err)
		return 1
	}

	// ── Assistant ─────────────────────────────────────────────────────────────
	// The breaker bypasses a backend that keeps failing while it cools off;
	// translations degrade immediately instead of waiting out retries.
	a, err := assistant.New(ctx, cfg,
		assistant.WithStore(store),
		assistant.WithBackend(resilience.Guard(backend)),
	)
	if err != nil {
		slog.Error("failed to initialise assistant", "err", err)
		return 1
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg, a)

	slog.Info("assistant ready — press Ctrl+C or type \"quit\" to leave")

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, runCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		// Quitting the prompt stops the HTTP surface too.
		defer cancelRun()
		return repl(runCtx, a)
	})

	if cfg.Server.ListenAddr != "" {
		g.Go(func() error {
			return serveHTTP(runCtx, cfg.Server.ListenAddr, store, a)
		})
	}

	err = g.Wait()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if cerr := a.Close(shutdownCtx); cerr != nil {
		slog.Error("shutdown error", "err", cerr)
		return 1
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Store and backend wiring ──────────────────────────────────────────────────

// openStore builds the slot store named by cfg. The caller owns the handle
// and must close it after the assistant has shut down.
func openStore(cfg config.StoreConfig) (kv.Store, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return kv.NewMemStore(), nil
	case config.StoreFile:
		return kv.NewFileStore(cfg.Dir)
	case config.StoreSQLite:
		return kv.OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}

// registerBuiltinBackends wires the translation backends that ship with
// Mandika into reg. The phrasebook works fully offline; the mock echoes its
// input and is handy for demos of the surrounding plumbing.
func registerBuiltinBackends(reg *config.Registry) {
	reg.RegisterBackend("phrasebook", func(config.BackendEntry) (translator.Backend, error) {
		return phrasebook.New(), nil
	})

	reg.RegisterBackend("mock", func(entry config.BackendEntry) (translator.Backend, error) {
		b := &mock.Backend{}
		if resp := optString(entry.Options, "response"); resp != "" {
			b.Response = resp
		}
		return b, nil
	})

	for _, name := range reg.BackendNames() {
		slog.Debug("registered translation backend", "name", name)
	}
}

// ── HTTP surface ──────────────────────────────────────────────────────────────

// serveHTTP exposes /healthz, /readyz and Prometheus /metrics until ctx is
// cancelled.
func serveHTTP(ctx context.Context, addr string, store kv.Store, a *assistant.Assistant) error {
	mux := http.NewServeMux()
	health.New(
		health.StoreChecker(store),
		health.CatalogChecker(a.Catalog),
		health.BackendChecker(a.Backend()),
	).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(closeCtx)
	}()

	slog.Info("http endpoints listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// ── Interactive loop ──────────────────────────────────────────────────────────

// Tone colours for suggestion output.
var (
	acceptCol  = color.New(color.FgGreen)
	rejectCol  = color.New(color.FgRed)
	counterCol = color.New(color.FgYellow)
	infoCol    = color.New(color.FgCyan)
)

// colourFor maps a suggestion kind to its terminal colour.
func colourFor(kind advisor.Kind) *color.Color {
	switch kind {
	case advisor.KindAccept:
		return acceptCol
	case advisor.KindReject:
		return rejectCol
	case advisor.KindCounter:
		return counterCol
	default:
		return infoCol
	}
}

// repl reads commands from stdin until EOF, "quit" or ctx cancellation.
// Command output goes to stdout; logs stay on stderr.
func repl(ctx context.Context, a *assistant.Assistant) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	fmt.Println(`Type "help" for commands.`)
	prompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			// EOF or a read error: either way the session is over.
			return err
		case line := <-lines:
			if quit := dispatch(ctx, a, line); quit {
				return nil
			}
			prompt()
		}
	}
}

func prompt() {
	fmt.Print("mandika> ")
}

// dispatch runs one command line. Reports whether the session should end.
func dispatch(ctx context.Context, a *assistant.Assistant, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		printHelp()
	case "price":
		cmdPrice(a, args)
	case "advise":
		cmdAdvise(a, args)
	case "split":
		cmdSplit(a, args)
	case "stalled":
		cmdStalled(a, args)
	case "translate":
		cmdTranslate(ctx, a, args)
	case "sale":
		cmdSale(ctx, a, args)
	case "history":
		cmdHistory(ctx, a)
	default:
		fmt.Printf("unknown command %q — type \"help\"\n", cmd)
	}
	return false
}

func printHelp() {
	fmt.Println(`Commands:
  price <name>                       look up a commodity's going rate
  advise <name> <offer> [prev...]    haggling advice for the offer on the table
  split <yours> <theirs>             meet-in-the-middle counter price
  stalled <offer> <offer> <offer>..  check whether a negotiation has plateaued
  translate <from> <to> <text>       translate, keeping prices and market terms intact
  sale <name> <price> <qty> <rating> [note]
                                     record a completed sale (rating 1-5)
  history                            recorded sales and running totals
  quit                               exit`)
}

func cmdPrice(a *assistant.Assistant, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: price <name>")
		return
	}
	msg, ok := a.Lookup(strings.Join(args, " "))
	if !ok {
		counterCol.Println(msg)
		return
	}
	fmt.Println(msg)
}

func cmdAdvise(a *assistant.Assistant, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: advise <name> <offer> [previous offers...]")
		return
	}
	nums, err := parseFloats(args[1:])
	if err != nil {
		fmt.Println(err)
		return
	}
	printSuggestion(a.Advise(advisor.Context{
		CommodityID:    args[0],
		CurrentOffer:   nums[0],
		PreviousOffers: nums[1:],
	}))
}

func cmdSplit(a *assistant.Assistant, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: split <your price> <their price>")
		return
	}
	nums, err := parseFloats(args)
	if err != nil {
		fmt.Println(err)
		return
	}
	printSuggestion(a.SuggestCompromise(nums[0], nums[1]))
}

func cmdStalled(a *assistant.Assistant, args []string) {
	offers, err := parseFloats(args)
	if err != nil {
		fmt.Println(err)
		return
	}
	if len(offers) < 3 {
		fmt.Println("need at least three offers to judge")
		return
	}
	if a.IsStalled(offers) {
		counterCol.Println("stalled — the numbers have stopped moving; split the difference or walk")
		return
	}
	fmt.Println("still moving")
}

func cmdTranslate(ctx context.Context, a *assistant.Assistant, args []string) {
	if len(args) < 3 {
		fmt.Println("usage: translate <from> <to> <text>")
		return
	}
	r := a.Translate(ctx, strings.Join(args[2:], " "), lang.Code(args[0]), lang.Code(args[1]))
	fmt.Println(r.Translated)
	if len(r.PreservedTerms) > 0 {
		fmt.Println("   preserved: " + strings.Join(r.PreservedTerms, ", "))
	}
	if a.ShouldFlagForReview(r) {
		counterCol.Printf("   confidence %.2f — double-check this one\n", r.Confidence)
	}
}

func cmdSale(ctx context.Context, a *assistant.Assistant, args []string) {
	if len(args) < 4 {
		fmt.Println("usage: sale <name> <price> <quantity> <rating> [note]")
		return
	}
	nums, err := parseFloats(args[1:3])
	if err != nil {
		fmt.Println(err)
		return
	}
	rating, err := strconv.Atoi(args[3])
	if err != nil {
		fmt.Printf("%q is not a rating\n", args[3])
		return
	}

	// Free-text names are fine; resolve to a catalog ID when one matches.
	id := args[0]
	if rec, ok := a.Resolve(id); ok {
		id = rec.ID
	}

	saved, err := a.RecordSale(ctx, journal.Entry{
		CommodityID: id,
		Price:       nums[0],
		Quantity:    nums[1],
		Rating:      rating,
		Note:        strings.Join(args[4:], " "),
	})
	if err != nil {
		rejectCol.Printf("not recorded: %v\n", err)
		return
	}
	acceptCol.Printf("recorded %s: ₹%s × %s\n",
		saved.CommodityID, humanize.Commaf(saved.Price), humanize.Commaf(saved.Quantity))
}

func cmdHistory(ctx context.Context, a *assistant.Assistant) {
	entries := a.History(ctx)
	if len(entries) == 0 {
		fmt.Println("no sales recorded yet")
		return
	}
	for _, e := range entries {
		fmt.Printf("%-12s ₹%-10s × %-8s rating %d/5  %s\n",
			e.CommodityID, humanize.Commaf(e.Price), humanize.Commaf(e.Quantity),
			e.Rating, humanize.Time(e.CreatedAt))
	}
	sum := a.SalesSummary(ctx)
	fmt.Printf("%s sales, ₹%s total, average rating %.1f\n",
		humanize.Comma(int64(sum.Count)), humanize.Commaf(sum.TotalValue), sum.AverageRating)
}

func printSuggestion(s advisor.Suggestion) {
	colourFor(s.Kind).Printf("[%s] %s\n", s.Kind, s.Message)
	if s.Rationale != "" {
		fmt.Println("   " + s.Rationale)
	}
}

// parseFloats parses each argument as a price figure.
func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", arg)
		}
		out = append(out, v)
	}
	return out, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, a *assistant.Assistant) {
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║       Mandika — startup summary      ║")
	fmt.Println("╠══════════════════════════════════════╣")
	printRow("Store", string(cfg.Store.Kind))
	printRow("Backend", cfg.Translation.Backend.Name)
	printRow("Commodities", strconv.Itoa(a.Catalog().Len()))
	switch {
	case cfg.Catalog.Path == "":
		printRow("Price sheet", "built-in")
	case cfg.Catalog.Watch:
		printRow("Price sheet", "watching")
	default:
		printRow("Price sheet", "static file")
	}
	printRow("Vendor lang", string(cfg.Languages.Vendor))
	printRow("Customer lang", string(cfg.Languages.Customer))
	if cfg.Server.ListenAddr != "" {
		printRow("Listen addr", cfg.Server.ListenAddr)
	}
	fmt.Println("╚══════════════════════════════════════╝")
}

func printRow(label, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s: %-19s ║\n", label, value)
}

// ── Logger ────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level.Slog(),
	}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a backend Options map. Returns ""
// if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}
