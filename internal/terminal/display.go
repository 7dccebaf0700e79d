// Package terminal renders the documentation chat in a terminal.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/liliang-cn/doc0/internal/domain"
	"golang.org/x/term"
)

// Color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

const defaultWidth = 80

// Display writes chat output to a terminal
type Display struct {
	out      io.Writer
	renderer *glamour.TermRenderer
	color    bool
}

// NewDisplay creates a display sized to the terminal. Output that is not a
// terminal gets the plain display.
func NewDisplay(out io.Writer) (*Display, error) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return NewPlainDisplay(out, defaultWidth)
	}

	width := terminalWidth(f)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Display{out: out, renderer: renderer, color: true}, nil
}

// NewPlainDisplay creates a display without colors or terminal styling.
func NewPlainDisplay(out io.Writer, width int) (*Display, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Display{out: out, renderer: renderer}, nil
}

func terminalWidth(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

func (d *Display) colored(color, text string) string {
	if !d.color {
		return text
	}
	return color + text + colorReset
}

// PrintWelcome displays the welcome banner for the active topic
func (d *Display) PrintWelcome(cfg domain.TopicConfig) {
	fmt.Fprintln(d.out, d.colored(colorCyan, "doc0: "+cfg.Heading))
	fmt.Fprintln(d.out, d.colored(colorGray, cfg.Description))
	fmt.Fprintln(d.out, d.colored(colorGray, "Commands: /topics | /topic <name> | /login <credential> | /logout | /quota | /history | /exit"))
	fmt.Fprintln(d.out)
}

// PrintPrompt displays the input prompt
func (d *Display) PrintPrompt(cfg domain.TopicConfig) {
	fmt.Fprintf(d.out, "\n%s ", d.colored(colorGreen, "["+cfg.Name+"] >"))
}

// PrintMessage renders one message. Assistant content is rendered as
// markdown, followed by code examples and the distinct sources.
func (d *Display) PrintMessage(msg domain.Message) {
	if msg.Role == domain.RoleUser {
		fmt.Fprintf(d.out, "%s %s\n", d.colored(colorGreen, "You:"), msg.Content)
		return
	}

	var md strings.Builder
	md.WriteString(msg.Content)
	for _, block := range msg.CodeBlocks {
		md.WriteString("\n\n")
		md.WriteString(block)
	}

	rendered, err := d.renderer.Render(md.String())
	if err != nil {
		rendered = md.String() + "\n"
	}
	fmt.Fprint(d.out, rendered)

	sources := domain.UniqueSources(msg.Sources)
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(d.out, d.colored(colorGray, "Sources:"))
	for i, s := range sources {
		fmt.Fprintf(d.out, "  [%d] %s - %s\n", i+1, s.Title, s.URL)
	}
}

// PrintTopics lists every topic, marking the active one
func (d *Display) PrintTopics(topics []domain.TopicConfig, active domain.Topic) {
	for _, t := range topics {
		marker := " "
		if t.ID == active {
			marker = "*"
		}
		fmt.Fprintf(d.out, " %s %-8s %s\n", marker, t.ID, t.Name)
	}
}

// PrintQuota shows the anonymous allowance
func (d *Display) PrintQuota(window domain.QuotaWindow, identity *domain.Identity) {
	if identity != nil {
		fmt.Fprintf(d.out, "Signed in as %s: no daily limit.\n", identity.Email)
		return
	}
	fmt.Fprintf(d.out, "%d of %d free requests remaining. Resets at %s.\n",
		window.Remaining, window.Limit, window.NextAllowedTime.Local().Format(time.DateTime))
}

// PrintLoginPrompt tells the user the daily limit is reached
func (d *Display) PrintLoginPrompt(window domain.QuotaWindow) {
	fmt.Fprintln(d.out, d.colored(colorYellow, "Daily Limit Reached"))
	fmt.Fprintf(d.out, "You've used all %d free requests for today. Sign in with /login <credential> to continue.\n", window.Limit)
	fmt.Fprintf(d.out, "Next free requests available at %s.\n", window.NextAllowedTime.Local().Format(time.DateTime))
}

// PrintError displays an error message
func (d *Display) PrintError(err error) {
	fmt.Fprintln(d.out, d.colored(colorRed, "Error: "+err.Error()))
}

// PrintInfo displays an info message
func (d *Display) PrintInfo(msg string) {
	fmt.Fprintln(d.out, d.colored(colorCyan, msg))
}
