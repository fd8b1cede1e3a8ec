// Package prompt provides the terminal prompts and notices of the
// automodeler CLI.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// ErrAborted is returned when the input ends before an answer was given.
var ErrAborted = errors.New("prompt: input closed")

// Prompter asks questions on a reader and writes to a writer.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer

	green  func(a ...any) string
	red    func(a ...any) string
	yellow func(a ...any) string
	cyan   func(a ...any) string
	bold   func(a ...any) string
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithoutColor turns off ANSI colors regardless of the terminal.
func WithoutColor() Option {
	return func(p *Prompter) {
		p.green = fmt.Sprint
		p.red = fmt.Sprint
		p.yellow = fmt.Sprint
		p.cyan = fmt.Sprint
		p.bold = fmt.Sprint
	}
}

// New returns a Prompter reading answers from in.
func New(in io.Reader, out io.Writer, opts ...Option) *Prompter {
	p := &Prompter{
		in:     bufio.NewScanner(in),
		out:    out,
		green:  color.New(color.FgGreen).SprintFunc(),
		red:    color.New(color.FgRed).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		cyan:   color.New(color.FgCyan).SprintFunc(),
		bold:   color.New(color.Bold).SprintFunc(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Prompter) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", ErrAborted
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Ask prints label and returns the answer, or def when the answer is empty.
func (p *Prompter) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", p.cyan(label), def)
	} else {
		fmt.Fprintf(p.out, "%s: ", p.cyan(label))
	}
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// AskRequired repeats the question until a non-empty answer is given.
func (p *Prompter) AskRequired(label string) (string, error) {
	for {
		v, err := p.Ask(label, "")
		if err != nil || v != "" {
			return v, err
		}
		p.Warn(label + " is required")
	}
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", p.cyan(label), hint)
		line, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "":
			return def, nil
		case "y", "yes", "o", "oui":
			return true, nil
		case "n", "no", "non":
			return false, nil
		}
		p.Warn("please answer y or n")
	}
}

// Choose lists options and returns the index of the one picked, by number
// or by name.
func (p *Prompter) Choose(label string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("prompt: %s has no options", label)
	}
	fmt.Fprintln(p.out, p.bold(label))
	for i, o := range options {
		fmt.Fprintf(p.out, "  %s %s\n", p.yellow(strconv.Itoa(i+1)+")"), o)
	}
	for {
		fmt.Fprint(p.out, p.cyan("> "))
		line, err := p.readLine()
		if err != nil {
			return -1, err
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		for i, o := range options {
			if strings.EqualFold(o, line) {
				return i, nil
			}
		}
		p.Warn(fmt.Sprintf("pick a number between 1 and %d", len(options)))
	}
}

// ChooseMany lists options and returns the indexes picked as a comma
// separated list. An empty answer returns the defaults.
func (p *Prompter) ChooseMany(label string, options []string, defaults []int) ([]int, error) {
	fmt.Fprintln(p.out, p.bold(label))
	for i, o := range options {
		fmt.Fprintf(p.out, "  %s %s\n", p.yellow(strconv.Itoa(i+1)+")"), o)
	}
outer:
	for {
		fmt.Fprint(p.out, p.cyan("> "))
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			return defaults, nil
		}
		var picked []int
		seen := make(map[int]bool)
		for _, f := range strings.Split(line, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil || n < 1 || n > len(options) {
				p.Warn(fmt.Sprintf("%q is not an option", strings.TrimSpace(f)))
				continue outer
			}
			if !seen[n-1] {
				seen[n-1] = true
				picked = append(picked, n-1)
			}
		}
		return picked, nil
	}
}

// Success prints a green notice.
func (p *Prompter) Success(msg string) { fmt.Fprintf(p.out, "%s %s\n", p.green("✓"), msg) }

// Error prints a red notice.
func (p *Prompter) Error(msg string) { fmt.Fprintf(p.out, "%s %s\n", p.red("✗"), msg) }

// Warn prints a yellow notice.
func (p *Prompter) Warn(msg string) { fmt.Fprintf(p.out, "%s %s\n", p.yellow("!"), msg) }

// Info prints a plain notice.
func (p *Prompter) Info(msg string) { fmt.Fprintln(p.out, msg) }

// Title prints a section heading.
func (p *Prompter) Title(msg string) {
	fmt.Fprintf(p.out, "\n%s\n%s\n", p.bold(msg), strings.Repeat("─", len([]rune(msg))))
}

// Table prints rows under a header, aligned in columns. At most limit rows
// are printed when limit is positive.
func (p *Prompter) Table(header []string, rows [][]string, limit int) {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}
	for _, r := range shown {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()
	if len(shown) < len(rows) {
		fmt.Fprintf(p.out, "… %d more rows\n", len(rows)-len(shown))
	}
}
