package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/doublestar"
	"github.com/fwojciec/docpkg/fs"
	"github.com/fwojciec/docpkg/gemini"
	"github.com/fwojciec/docpkg/git"
	"github.com/fwojciec/docpkg/htmltomarkdown"
	dochttp "github.com/fwojciec/docpkg/http"
	"github.com/fwojciec/docpkg/npm"
	docslog "github.com/fwojciec/docpkg/slog"
	"github.com/fwojciec/docpkg/yaml"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Home directory used for the default cache location.
	Home string

	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	// Services for end-to-end testing. Built from the environment when nil.
	TokenCounter docpkg.TokenCounter
	Analyzer     docpkg.Analyzer
	Now          func() time.Time
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Main{
		Home:   home,
		Getenv: os.Getenv,
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Getenv: m.getenv,
		Now:    m.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docpkg"),
		kong.Description("Install, index and bundle documentation from packages, repositories and URLs."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		err := fmt.Errorf("no command specified. Run 'docpkg --help' to see available commands")
		fmt.Fprintln(stderr, err)
		return err
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return err
	}
	cmd = strings.Fields(kongCtx.Command())[0]

	root, err := filepath.Abs(cli.Dir)
	if err != nil {
		return deps.fail(err)
	}
	logger := newLogger(stderr, cli.Verbose)
	copier := doublestar.NewCopier(logger)

	deps.Root = root
	deps.Home = m.Home
	deps.Logger = logger
	deps.Config = yaml.NewConfigStore(root, m.Home)
	deps.Ledger = fs.NewLedgerStore(root)
	deps.Copier = copier
	deps.FrontMatter = yaml.NewFrontMatterParser()
	deps.Adapters = docslog.WrapAdapters(newAdapters(root, copier, logger), logger)

	if indexes(cmd) {
		deps.TokenCounter = m.tokenCounter(logger)
	}

	if cmd == "enrich" {
		analyzer, err := m.analyzer(ctx, deps)
		if err != nil {
			return err
		}
		deps.Analyzer = docslog.NewLoggingAnalyzer(analyzer, logger)
	}

	return kongCtx.Run(deps)
}

// tokenizerModel is used for token counting.
const tokenizerModel = "gemini-2.5-flash"

// registryTimeout bounds registry metadata and tarball requests.
const registryTimeout = 30 * time.Second

// registryRate caps requests per second to one registry host.
const registryRate = 10

// newAdapters returns the source adapters in priority order.
func newAdapters(root string, copier docpkg.GlobCopier, logger *slog.Logger) []docpkg.Adapter {
	return []docpkg.Adapter{
		npm.NewAdapter(dochttp.NewClient(dochttp.WithTimeout(registryTimeout), dochttp.WithRateLimit(registryRate)), copier, npm.WithLogger(logger)),
		git.NewAdapter(&git.ExecRunner{}, copier, git.WithLogger(logger)),
		dochttp.NewAdapter(dochttp.NewClient(),
			dochttp.WithConverter(htmltomarkdown.NewConverter()),
			dochttp.WithLogger(logger),
		),
		fs.NewLocalAdapter(root),
	}
}

// indexes reports whether cmd regenerates the index and so counts tokens.
func indexes(cmd string) bool {
	switch cmd {
	case "add", "install", "update", "remove", "index", "bundle", "enrich", "search":
		return true
	}
	return false
}

// tokenCounter returns the configured counter, or the Gemini tokenizer. Token
// counts are left at zero when the tokenizer cannot be loaded.
func (m *Main) tokenCounter(logger *slog.Logger) docpkg.TokenCounter {
	if m.TokenCounter != nil {
		return m.TokenCounter
	}
	tc, err := gemini.NewTokenCounter(tokenizerModel)
	if err != nil {
		logger.Warn("token counting disabled", "error", err)
		return nil
	}
	return tc
}

func (m *Main) analyzer(ctx context.Context, deps *Dependencies) (docpkg.Analyzer, error) {
	if m.Analyzer != nil {
		return m.Analyzer, nil
	}

	apiKey := m.getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(deps.Stderr, "error: GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return nil, docpkg.Errorf(docpkg.EINVALID, "GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, deps.fail(fmt.Errorf("failed to connect to Gemini API: %w", err))
	}

	model := m.getenv("DOCPKG_MODEL")
	if model == "" {
		if cfg, err := deps.Config.Load(); err == nil && cfg.AI.Model != "" {
			model = cfg.AI.Model
		}
	}
	if model == "" {
		model = gemini.DefaultModel
	}
	return gemini.NewAnalyzer(client, model), nil
}

// newLogger writes warnings and errors to w, or everything from debug up
// when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (m *Main) getenv(key string) string {
	if m.Getenv != nil {
		return m.Getenv(key)
	}
	return os.Getenv(key)
}
