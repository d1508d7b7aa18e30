package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"

	"github.com/totalquality/qassist/internal/chat"
	"github.com/totalquality/qassist/internal/conversation"
	"github.com/totalquality/qassist/internal/models"
)

// LineReader reads one line of input. It returns io.EOF or liner.ErrPromptAborted
// when the user leaves.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// LinerInput reads lines with editing and persistent history.
type LinerInput struct {
	line        *liner.State
	historyFile string
}

// NewLinerInput puts the terminal into line-editing mode and loads history
// from historyFile when it exists.
func NewLinerInput(historyFile string) *LinerInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	in := &LinerInput{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return in
}

// Prompt reads a line, adding non-blank input to history.
func (l *LinerInput) Prompt(prompt string) (string, error) {
	input, err := l.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		l.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (l *LinerInput) Close() error {
	if l.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(l.historyFile), 0o700); err == nil {
			if f, err := os.OpenFile(l.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
				_, _ = l.line.WriteHistory(f)
				f.Close()
			}
		}
	}
	return l.line.Close()
}

const replHelp = `Commands:
  /new            start a new conversation
  /list           list conversations
  /open <n>       switch to conversation n from /list
  /delete <n>     delete conversation n from /list
  /suggest        show sample questions
  /help           show this help
  /quit           leave
Anything else is sent to Q. Ctrl-C stops a reply that is streaming.`

// Session is the interactive chat loop over a chat.Controller.
type Session struct {
	ctrl        *chat.Controller
	in          LineReader
	out         io.Writer
	render      *Renderer
	suggestions []string
	now         func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	shown  string
	live   bool
	listed []string
}

// NewSession wires a session. When render produces markdown, replies are
// printed once complete; otherwise chunks are written as they stream.
func NewSession(ctrl *chat.Controller, in LineReader, out io.Writer, render *Renderer, suggestions []string) *Session {
	s := &Session{
		ctrl:        ctrl,
		in:          in,
		out:         out,
		render:      render,
		suggestions: suggestions,
		now:         time.Now,
	}
	ctrl.OnChange(s.onChange)
	return s
}

// Run reads and executes lines until the user quits or input ends.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Q is ready. Type /help for commands.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := s.in.Prompt(s.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}
		quit, err := s.Execute(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "[Error] %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (s *Session) prompt() string {
	if conv, ok := s.ctrl.State().Active(); ok && conv.Title != conversation.DefaultTitle {
		return fmt.Sprintf("q (%s)> ", strings.TrimSuffix(conv.Title, "..."))
	}
	return "q> "
}

// Interrupt cancels the reply in flight. It reports whether there was one.
func (s *Session) Interrupt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	return true
}

// Execute runs one line of input: a slash command or a message for Q.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, s.send(ctx, line)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(s.out, replHelp)
	case "/new":
		s.ctrl.NewChat(ctx)
		fmt.Fprintln(s.out, "Started a new conversation.")
	case "/list", "/history":
		s.list()
	case "/open":
		id, err := s.pick(arg)
		if err != nil {
			return false, err
		}
		if err := s.ctrl.Select(ctx, id); err != nil {
			return false, err
		}
		s.replay()
	case "/delete":
		id, err := s.pick(arg)
		if err != nil {
			return false, err
		}
		if err := s.ctrl.Delete(ctx, id); err != nil {
			return false, err
		}
		s.listed = nil
		fmt.Fprintln(s.out, "Deleted.")
	case "/suggest":
		for _, q := range s.suggestions {
			fmt.Fprintf(s.out, "  - %s\n", q)
		}
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	return false, nil
}

func (s *Session) list() {
	state := s.ctrl.State()
	groups := conversation.GroupByRecency(state.Conversations, s.now())
	s.listed = ConversationIDs(groups)
	WriteConversations(s.out, groups, state.ActiveID)
}

func (s *Session) pick(arg string) (string, error) {
	if s.listed == nil {
		s.listed = ConversationIDs(conversation.GroupByRecency(s.ctrl.State().Conversations, s.now()))
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.listed) {
		return "", fmt.Errorf("pick a conversation number from /list (1-%d)", len(s.listed))
	}
	return s.listed[n-1], nil
}

// replay prints the active conversation's messages.
func (s *Session) replay() {
	conv, ok := s.ctrl.State().Active()
	if !ok {
		return
	}
	fmt.Fprintf(s.out, "\n== %s ==\n", conv.Title)
	for _, m := range conv.Messages {
		if m.Role == models.RoleUser {
			fmt.Fprintf(s.out, "\nYou: %s\n", m.Content)
			continue
		}
		fmt.Fprint(s.out, "\nQ: ")
		fmt.Fprint(s.out, s.render.Render(m.Content))
	}
	fmt.Fprintln(s.out)
}

func (s *Session) send(ctx context.Context, text string) error {
	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	s.shown = ""
	s.live = !s.render.Markdown()
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.live = false
		s.mu.Unlock()
	}()

	if s.live {
		fmt.Fprint(s.out, "Q: ")
	}
	err := s.ctrl.Send(sendCtx, text)

	state := s.ctrl.State()
	conv, ok := state.Active()
	reply := ""
	if ok && len(conv.Messages) > 0 {
		reply = conv.Messages[len(conv.Messages)-1].Content
	}

	s.mu.Lock()
	shown := s.shown
	s.live = false
	s.mu.Unlock()
	if s.render.Markdown() {
		fmt.Fprint(s.out, "\n"+s.render.Render(reply))
	} else {
		if strings.HasPrefix(reply, shown) {
			fmt.Fprintln(s.out, reply[len(shown):])
		} else {
			fmt.Fprintln(s.out, "\n"+reply)
		}
	}
	if ok && state.Phase(conv.ID) == chat.PhaseCancelled {
		fmt.Fprintln(s.out, "[Cancelled]")
	}

	var streamErr *chat.StreamError
	if errors.As(err, &streamErr) {
		// The apology is already shown as the reply.
		return nil
	}
	return err
}

// onChange streams new reply text while a send is in flight.
func (s *Session) onChange(state chat.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live || state.Phase(state.ActiveID) != chat.PhaseStreaming {
		return
	}
	conv, ok := state.Active()
	if !ok || len(conv.Messages) == 0 {
		return
	}
	last := conv.Messages[len(conv.Messages)-1]
	if last.Role != models.RoleAssistant || len(last.Content) <= len(s.shown) || !strings.HasPrefix(last.Content, s.shown) {
		return
	}
	fmt.Fprint(s.out, last.Content[len(s.shown):])
	s.shown = last.Content
}
