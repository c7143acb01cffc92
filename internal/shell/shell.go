package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tsh/internal/config"
	"tsh/internal/history"
	"tsh/internal/jobs"
	"tsh/internal/parse"
	"tsh/internal/term"
)

type Shell struct {
	config     *config.Config
	history    *history.History
	control    *jobs.Control
	signaler   jobs.Signaler
	launcher   Launcher
	wait       WaitFunc
	in         *os.File
	out        io.Writer
	log        zerolog.Logger
	signalChan chan os.Signal
	exit       func(code int)
}

// Option overrides one of the shell's collaborators.
type Option func(*Shell)

func WithInput(f *os.File) Option { return func(s *Shell) { s.in = f } }
func WithOutput(w io.Writer) Option { return func(s *Shell) { s.out = w } }
func WithLauncher(l Launcher) Option { return func(s *Shell) { s.launcher = l } }
func WithSignaler(sg jobs.Signaler) Option { return func(s *Shell) { s.signaler = sg } }
func WithWaiter(fn WaitFunc) Option { return func(s *Shell) { s.wait = fn } }
func WithExit(fn func(code int)) Option { return func(s *Shell) { s.exit = fn } }
func WithLogger(l zerolog.Logger) Option { return func(s *Shell) { s.log = l } }

func New(cfg *config.Config, opts ...Option) (*Shell, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	s := &Shell{
		config:     cfg,
		signaler:   jobs.SystemSignaler,
		wait:       wait4,
		in:         os.Stdin,
		out:        os.Stdout,
		log:        log.Logger,
		signalChan: make(chan os.Signal, 8),
		exit:       os.Exit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.out = &lockedWriter{w: s.out}
	if s.launcher == nil {
		s.launcher = &execLauncher{stdin: s.in, stdout: os.Stdout, stderr: os.Stderr}
	}

	s.control = jobs.NewControl(jobs.NewTable(cfg.MaxJobs, s.log.With().Str("component", "jobs").Logger()))

	// Scripted sessions keep history in memory so concurrent shells do not
	// contend for the database lock.
	file := cfg.HistoryFile
	if !s.interactive() {
		file = ""
	}
	hist, err := history.New(file, cfg.HistorySize)
	if err != nil {
		s.log.Warn().Err(err).Msg("history unavailable, keeping it in memory")
		if hist, err = history.New("", cfg.HistorySize); err != nil {
			return nil, fmt.Errorf("error initializing history: %w", err)
		}
	}
	s.history = hist
	return s, nil
}

func (s *Shell) interactive() bool {
	return s.config.EmitPrompt && term.IsInteractive(s.in)
}

func (s *Shell) prompt() string {
	if !s.config.EmitPrompt {
		return ""
	}
	return s.config.Prompt
}

// Run reads and evaluates command lines until end of input.
func (s *Shell) Run() error {
	s.setupSignalHandling()
	defer s.stopSignalHandling()

	reader, err := term.NewLineReader(term.Options{
		In:      s.in,
		Out:     s.out,
		Prompt:  s.prompt(),
		History: s.history.GetAll(),
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		line, err := reader.ReadLine()
		if errors.Is(err, term.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := s.history.Add(line); err != nil {
			s.log.Warn().Err(err).Msg("failed to record history")
		}

		if err := s.Execute(line); err != nil {
			s.report(err)
		}
	}

	return s.history.Close()
}

// Execute evaluates one command line.
func (s *Shell) Execute(line string) error {
	s.log.Debug().Str("line", line).Msg("begin eval")
	argv, background, err := parse.Line(line)
	if err != nil {
		return err
	}
	if len(argv) == 0 {
		return nil
	}
	if ok, err := s.executeBuiltin(argv); ok {
		return err
	}
	return s.runExternal(argv, background, line)
}

func (s *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) report(err error) {
	fmt.Fprintln(s.out, err)
}

// fatalf reports an unrecoverable condition and terminates the shell.
func (s *Shell) fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.log.Error().Msg(msg)
	s.printf("%s\n", msg)
	s.exit(1)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
