package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"
)

// ErrNoInput is returned when the console is closed before a line is entered.
var ErrNoInput = errors.New("no input received")

// Console is the operator dialogue: line prompts in, messages and tables out.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Prompt prints label without a newline and blocks for one line of input.
// The answer is trimmed of surrounding whitespace.
func (c *Console) Prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out)
			return "", ErrNoInput
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Println prints plain text followed by a newline.
func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

func (c *Console) Printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

// Success displays a success message with a checkmark
func (c *Console) Success(message string) {
	pterm.Success.WithWriter(c.out).Println(message)
}

// Error displays an error message
func (c *Console) Error(message string) {
	pterm.Error.WithWriter(c.out).Println(message)
}

// Warning displays a warning message
func (c *Console) Warning(message string) {
	pterm.Warning.WithWriter(c.out).Println(message)
}

// Info displays an info message
func (c *Console) Info(message string) {
	pterm.Info.WithWriter(c.out).Println(message)
}

// KeyValue displays a key-value pair in a styled format
func (c *Console) KeyValue(key, value string) {
	fmt.Fprintf(c.out, "%s %s\n", pterm.LightCyan(key+":"), value)
}

// Table renders a boxed table with a header row.
func (c *Console) Table(headers []string, data [][]string) error {
	tableData := pterm.TableData{headers}
	tableData = append(tableData, data...)
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(tableData).WithWriter(c.out).Render()
}

// Card prints a bordered block of fields.
func (c *Console) Card(title string, fields []Field) {
	fmt.Fprintln(c.out, RenderCard(title, fields))
}

// ConfigureStyling turns colours off when f is not an interactive terminal, so
// piped output and log captures stay plain.
func ConfigureStyling(f *os.File) {
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		DisableStyling()
	}
}

// DisableStyling removes colours and decorations from every printer.
func DisableStyling() {
	pterm.DisableStyling()
	lipgloss.SetColorProfile(termenv.Ascii)
}
