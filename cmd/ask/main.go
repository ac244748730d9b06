// Command ask sends one question to the llmdesk backend and prints the answer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/dgallion1/llmdesk/internal/apiclient"
	"github.com/dgallion1/llmdesk/internal/config"
	"github.com/dgallion1/llmdesk/internal/doctree"
	"github.com/dgallion1/llmdesk/internal/export"
	"github.com/dgallion1/llmdesk/internal/formatter"
	"github.com/dgallion1/llmdesk/internal/logger"
	"github.com/dgallion1/llmdesk/internal/render"
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563EB")).Bold(true)
	thinkingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#D97706"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tty := term.IsTerminal(int(os.Stdout.Fd()))
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, tty))
}

type options struct {
	mode    string
	model   string
	api     string
	pdfPath string
	docPath string
	raw     bool
	verbose bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, tty bool) int {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render(err.Error()))
		return 2
	}

	var opts options
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.mode, "mode", string(apiclient.Cloud), "cloud or local")
	fs.StringVar(&opts.model, "model", "", "model name (backend default when empty)")
	fs.StringVar(&opts.api, "api", cfg.APIBaseURL, "backend base URL")
	fs.StringVar(&opts.pdfPath, "pdf", "", "also write the answer as PDF to this file")
	fs.StringVar(&opts.docPath, "docx", "", "also write the answer as DOCX to this file")
	fs.BoolVar(&opts.raw, "raw", false, "print the raw response, reasoning included")
	fs.BoolVar(&opts.verbose, "v", false, "log client activity to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ask [flags] question...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	mode, err := apiclient.ParseMode(opts.mode)
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render(err.Error()))
		return 2
	}

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" && !tty {
		b, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintln(stderr, errorStyle.Render("read stdin: "+err.Error()))
			return 1
		}
		question = strings.TrimSpace(string(b))
	}
	if question == "" {
		fmt.Fprintln(stderr, hintStyle.Render("⚠️ Please enter a question or prompt."))
		return 2
	}

	log := slog.New(slog.DiscardHandler)
	if opts.verbose {
		log = logger.NewWithWriter(stderr, "debug")
	}
	client := apiclient.New(opts.api,
		apiclient.WithTimeouts(apiclient.Timeouts{
			Health: cfg.HealthTimeout,
			Models: cfg.ModelsTimeout,
			Cloud:  cfg.CloudTimeout,
			Local:  cfg.LocalTimeout,
		}),
		apiclient.WithLogger(log),
	)

	raw, err := client.Ask(ctx, question, opts.model, mode)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	resp := formatter.Format(raw)
	if opts.raw {
		fmt.Fprintln(stdout, raw)
	} else {
		printAnswer(stdout, resp, displayModel(opts.model), tty)
	}

	meta := doctree.Metadata{
		GeneratedAt: time.Now(),
		ModelName:   displayModel(opts.model),
		Question:    question,
		Source:      resp.MainText,
	}
	blocks := render.Render(resp.MainText)
	for _, out := range []struct {
		path   string
		format export.Format
	}{
		{opts.pdfPath, export.FormatPDF},
		{opts.docPath, export.FormatDOCX},
	} {
		if out.path == "" {
			continue
		}
		if err := writeExport(out.path, out.format, blocks, meta, log); err != nil {
			fmt.Fprintln(stderr, errorStyle.Render(err.Error()))
			return 1
		}
		fmt.Fprintln(stderr, dimStyle.Render("wrote "+out.path))
	}
	return 0
}

func displayModel(model string) string {
	if model == "" {
		return "default"
	}
	return model
}

func printError(w io.Writer, err error) {
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		fmt.Fprintln(w, errorStyle.Render(err.Error()))
		return
	}
	fmt.Fprintln(w, errorStyle.Render(apiErr.UserMessage()))
	if hint := apiErr.Hint(); hint != "" {
		fmt.Fprintln(w, hintStyle.Render("💡 "+hint))
	}
}

func printAnswer(w io.Writer, resp formatter.Response, model string, tty bool) {
	for i, t := range resp.Thinking {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("💭 Thinking %d:", i+1)))
		fmt.Fprintln(w, thinkingStyle.Render(strings.TrimSpace(t)))
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("🤖 Assistant (%s):", model)))
	fmt.Fprintln(w, renderMarkdown(resp.MainText, tty))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("words: %d  characters: %d  tokens: ~%d",
		resp.Stats.WordCount, resp.Stats.CharCount, resp.Stats.EstimatedTokens)))
}

// renderMarkdown styles markdown for a terminal; piped output stays plain.
func renderMarkdown(md string, tty bool) string {
	if !tty {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func writeExport(path string, f export.Format, blocks []doctree.Block, meta doctree.Metadata, log *slog.Logger) error {
	ex, err := export.New(f)
	if err != nil {
		return err
	}
	if p, ok := ex.(*export.PDF); ok {
		p.Logger = log
	}
	data, err := ex.Export(blocks, meta)
	if err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
