package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/liliang-cn/doc0/internal/domain"
	"github.com/liliang-cn/doc0/internal/service"
)

// REPL is the interactive terminal chat
type REPL struct {
	chat    *service.ChatService
	widget  *service.WidgetService
	auth    *service.AuthService
	display *Display
	loading *Loading
	in      io.Reader
}

// NewREPL creates a REPL reading from in. Register it with
// ChatService.SetLoginPrompter so denials show the sign-in prompt.
func NewREPL(
	chat *service.ChatService,
	widget *service.WidgetService,
	auth *service.AuthService,
	display *Display,
	loading *Loading,
	in io.Reader,
) *REPL {
	return &REPL{
		chat:    chat,
		widget:  widget,
		auth:    auth,
		display: display,
		loading: loading,
		in:      in,
	}
}

// PromptLogin shows the daily limit notice.
func (r *REPL) PromptLogin(window domain.QuotaWindow) {
	r.display.PrintLoginPrompt(window)
}

// Run reads lines until /exit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	state := r.widget.Snapshot(ctx)
	r.display.PrintWelcome(domain.DefaultTopicConfig(state.ActiveTopic))
	for _, msg := range state.Messages {
		r.display.PrintMessage(msg)
	}

	lines, readErr := r.readLines(ctx)
	for {
		r.display.PrintPrompt(domain.DefaultTopicConfig(r.widget.Snapshot(ctx).ActiveTopic))

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.display.out)
			r.display.PrintInfo("Goodbye!")
			return nil
		case l, ok := <-lines:
			if !ok {
				return <-readErr
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if done := r.command(ctx, line); done {
				return nil
			}
			continue
		}

		r.submit(ctx, line)
	}
}

// readLines scans input on its own goroutine so a blocked read does not hold
// up cancellation. The goroutine stays parked on the reader until it returns.
func (r *REPL) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- scanner.Err()
	}()

	return lines, errc
}

func (r *REPL) submit(ctx context.Context, text string) {
	stop := r.loading.Start()
	resp, err := r.chat.Submit(ctx, text)
	stop()

	if err != nil {
		// Denials were already shown through PromptLogin.
		if !errors.Is(err, domain.ErrQuotaExceeded) {
			r.display.PrintError(err)
		}
		return
	}
	r.display.PrintMessage(*resp.Answer)
	if resp.Remaining >= 0 {
		r.display.PrintInfo(fmt.Sprintf("%d free requests left today.", resp.Remaining))
	}
}

// command runs a slash command and reports whether the REPL should exit.
func (r *REPL) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		r.display.PrintInfo("Goodbye!")
		return true

	case "/topics":
		state := r.widget.Snapshot(ctx)
		r.display.PrintTopics(state.Config.Topics, state.ActiveTopic)

	case "/topic":
		topic, err := r.widget.SwitchTopic(arg)
		if err != nil {
			r.display.PrintError(err)
			return false
		}
		r.display.PrintWelcome(domain.DefaultTopicConfig(topic))
		msgs, _ := r.widget.Messages(string(topic))
		for _, msg := range msgs {
			r.display.PrintMessage(msg)
		}

	case "/history":
		state := r.widget.Snapshot(ctx)
		if len(state.Messages) == 0 {
			r.display.PrintInfo("No messages yet.")
		}
		for _, msg := range state.Messages {
			r.display.PrintMessage(msg)
		}

	case "/login":
		identity, err := r.auth.Login(arg)
		if err != nil {
			r.display.PrintError(err)
			return false
		}
		name := identity.DisplayName
		if name == "" {
			name = identity.Email
		}
		r.display.PrintInfo("Signed in as " + name + ".")

	case "/logout":
		r.auth.Logout()
		r.display.PrintInfo("Signed out.")

	case "/quota":
		state := r.widget.Snapshot(ctx)
		r.display.PrintQuota(state.Quota, state.User)

	default:
		r.display.PrintError(fmt.Errorf("unknown command %q", name))
	}
	return false
}
