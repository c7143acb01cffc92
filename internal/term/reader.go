// Package term reads command lines from an interactive terminal or a plain stream.
package term

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
)

// ErrInterrupt is returned by ReadLine when the user typed ctrl-c at the prompt.
var ErrInterrupt = readline.ErrInterrupt

type LineReader interface {
	// ReadLine returns the next line without its newline, or io.EOF.
	ReadLine() (string, error)
	Close() error
}

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Options configure NewLineReader.
type Options struct {
	In      *os.File
	Out     io.Writer
	Prompt  string
	History []string
}

// NewLineReader picks a readline editor when In is a terminal and the prompt
// is enabled, and a plain line scanner otherwise.
func NewLineReader(opts Options) (LineReader, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Prompt == "" || !IsInteractive(opts.In) {
		return &plainReader{in: bufio.NewReader(opts.In), out: opts.Out, prompt: opts.Prompt}, nil
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt: opts.Prompt,
		Stdin:  opts.In,
		Stdout: opts.Out,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing readline: %w", err)
	}
	for _, item := range opts.History {
		if err := rl.SaveHistory(item); err != nil {
			break
		}
	}
	return &editReader{rl: rl}, nil
}

type editReader struct {
	rl *readline.Instance
}

func (r *editReader) ReadLine() (string, error) {
	return r.rl.Readline()
}

func (r *editReader) Close() error {
	return r.rl.Close()
}

type plainReader struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

func (r *plainReader) ReadLine() (string, error) {
	if r.prompt != "" {
		fmt.Fprint(r.out, r.prompt)
	}
	line, err := r.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *plainReader) Close() error {
	return nil
}
