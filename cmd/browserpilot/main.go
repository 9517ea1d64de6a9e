// Command browserpilot runs autonomous browser tasks from the terminal.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"browserpilot/pkg/config"
	"browserpilot/pkg/contextmgr"
	"browserpilot/pkg/eventlog"
	"browserpilot/pkg/graph"
	"browserpilot/pkg/llm"
	"browserpilot/pkg/logx"
	"browserpilot/pkg/metrics"
	"browserpilot/pkg/persistence"
	"browserpilot/pkg/state"
	"browserpilot/pkg/tools"
)

// Version information - set via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var (
		configPath  = flag.String("config", "browserpilot.yaml", "Path to configuration file")
		task        = flag.String("task", "", "Task to run non-interactively (prompts when omitted)")
		resumeID    = flag.String("resume", "", "Session ID of a suspended task to resume")
		answer      = flag.String("answer", "", "Confirmation answer (y/n) when resuming non-interactively")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("browserpilot %s (%s)\n", version, commit)
		os.Exit(0)
	}
	if *debug {
		logx.SetDebug(true)
	}

	if err := run(*configPath, *task, *resumeID, *answer); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, task, resumeID, answer string) error {
	logger := logx.NewLogger("main")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewClient(cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	session, err := tools.NewSession(ctx, cfg.Browser)
	if err != nil {
		return err
	}
	defer session.Close()

	registry := tools.NewRegistry()
	tools.RegisterBrowserTools(registry, session)
	registry.Seal()

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server stopped: %v", err)
			}
		}()
	}

	g, err := graph.Build(graph.Deps{
		Client:    client,
		Registry:  registry,
		Compactor: contextmgr.NewCompactor(cfg.Compaction),
		Recorder:  recorder,
		Agent:     cfg.Agent,
		LLM:       cfg.LLM,
	})
	if err != nil {
		return err
	}
	runner, err := g.Compile(store, graph.WithRecorder(recorder), graph.WithMaxSteps(cfg.Agent.MaxSteps))
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	if resumeID != "" {
		if answer == "" {
			if !interactive {
				return fmt.Errorf("resume requires -answer y|n when stdin is not a terminal")
			}
			answer, err = promptLine(fmt.Sprintf("Resume %s with answer [y/n]: ", resumeID))
			if err != nil {
				return err
			}
		}
		transcript, err := openTranscript(cfg.Logging, resumeID)
		if err != nil {
			return err
		}
		defer closeTranscript(transcript, logger)
		return consume(ctx, runner, runner.Resume(ctx, resumeID, normalizeAnswer(answer)), interactive, transcript)
	}

	if task != "" {
		return runTask(ctx, runner, cfg.Logging, logger, task, interactive)
	}
	if !interactive {
		return fmt.Errorf("no task given: use -task or run from a terminal")
	}

	// Interactive session: run tasks until the user exits or stdin closes.
	for ctx.Err() == nil {
		line, err := promptLine("Task (or 'help'): ")
		if err != nil {
			return nil
		}
		switch cmd, text := parseCommand(line); cmd {
		case cmdExit:
			return nil
		case cmdHelp:
			fmt.Print(helpText)
		case cmdEmpty:
		case cmdTask:
			if err := runTask(ctx, runner, cfg.Logging, logger, text, interactive); err != nil {
				fmt.Fprintf(os.Stderr, "task failed: %v\n", err)
			}
		}
	}
	return nil
}

// runTask runs one task to completion or suspension, recording a transcript.
func runTask(ctx context.Context, runner *graph.Runner, logCfg config.LoggingConfig, logger *logx.Logger, task string, interactive bool) error {
	st := state.NewTaskState(task)
	transcript, err := openTranscript(logCfg, st.SessionID)
	if err != nil {
		return err
	}
	defer closeTranscript(transcript, logger)

	logger.Info("starting task %s", st.SessionID)
	return consume(ctx, runner, runner.Run(ctx, st), interactive, transcript)
}

// promptCommand classifies one line of interactive input.
type promptCommand int

const (
	cmdTask promptCommand = iota
	cmdEmpty
	cmdExit
	cmdHelp
)

const helpText = `Commands:
  <task text>  run a browser task
  help         show this help
  exit         quit
`

func parseCommand(line string) (promptCommand, string) {
	trimmed := strings.TrimSpace(line)
	switch strings.ToLower(trimmed) {
	case "":
		return cmdEmpty, ""
	case "exit", "quit":
		return cmdExit, ""
	case "help":
		return cmdHelp, ""
	}
	return cmdTask, trimmed
}

// consume drains a run's event stream, answering checkpoints inline when
// interactive and printing the final result.
func consume(ctx context.Context, runner *graph.Runner, events <-chan graph.Event, interactive bool, transcript *eventlog.Writer) error {
	for ev := range events {
		record(transcript, ev)
		switch ev.Type {
		case graph.EventProgress:
			fmt.Println(ev.Message)
		case graph.EventCheckpoint:
			fmt.Printf("\n%s\n", ev.Payload.Message)
			if !interactive {
				fmt.Printf("Task suspended. Resume with: browserpilot -resume %s -answer y|n\n", ev.SessionID)
				return nil
			}
			line, err := promptLine("Proceed? [y/n]: ")
			if err != nil {
				// Stdin closed mid-checkpoint: leave the task suspended.
				fmt.Printf("Task suspended. Resume with: browserpilot -resume %s -answer y|n\n", ev.SessionID)
				return nil
			}
			return consume(ctx, runner, runner.Resume(ctx, ev.SessionID, normalizeAnswer(line)), interactive, transcript)
		case graph.EventDone:
			fmt.Printf("\n%s\n", ev.Result)
			return nil
		case graph.EventError:
			return ev.Err
		}
	}
	return nil
}

func openTranscript(cfg config.LoggingConfig, sessionID string) (*eventlog.Writer, error) {
	if cfg.TranscriptDir == "" {
		return nil, nil
	}
	return eventlog.NewWriter(cfg.TranscriptDir, sessionID)
}

func closeTranscript(w *eventlog.Writer, logger *logx.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Warn("failed to close transcript: %v", err)
	}
}

// record mirrors an orchestration event into the session transcript.
func record(w *eventlog.Writer, ev graph.Event) {
	if w == nil {
		return
	}
	rec := eventlog.Record{
		Type:      string(ev.Type),
		SessionID: ev.SessionID,
		Node:      string(ev.Node),
		Next:      string(ev.Next),
		Message:   ev.Message,
		Result:    ev.Result,
	}
	if ev.Payload != nil && rec.Message == "" {
		rec.Message = ev.Payload.Message
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}
	_ = w.Write(rec)
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

// normalizeAnswer folds any affirmative spelling onto "y"; everything else
// declines.
func normalizeAnswer(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return "y"
	default:
		return "n"
	}
}

func openStore(cfg config.StorageConfig) (state.Store, func(), error) {
	if cfg.Driver == config.StorageSQLite {
		s, err := persistence.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	return state.NewMemoryStore(), func() {}, nil
}
