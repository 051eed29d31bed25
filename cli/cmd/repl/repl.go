package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/interp"
	"github.com/ardnew/vartab/lang"
	"github.com/ardnew/vartab/log"
)

// editDoneMsg is sent when editing produced a new set of bindings.
type editDoneMsg struct{ in *interp.Interpreter }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after an error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-evaluation
// error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
	cmdPrefix  = ":"
)

func helpMessage() string {
	return `
Statements:

  int port = 8080;             bind with an explicit type
  hosts = {"a", "b"};          bind with an inferred type
  Var p = PathList(name("PATH"), items({"/opt/bin"}));
  include "common.vt";         evaluate a file
  port                         show a binding

  The trailing ';' may be omitted.

Commands:

  :print [name...]             Print all or the named bindings
  :types                       List bound types and constructible objects
  :query <expr>                Evaluate an expression over the bindings
  :format native|json|yaml     Print all bindings in a format
  :unset name...               Remove bindings
  :reset                       Remove all bindings
  :edit                        Edit the bindings in external $EDITOR
  :clear                       Clear screen
  :help                        Print this cruft
  :quit                        Exit REPL

Keys:
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to cancel a completion or clear the line
  Use Up/Down arrows for history navigation
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the echo line with prompt and input styled.
func formatCommand(input string) string {
	if strings.HasPrefix(input, cmdPrefix) {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input[1:])
	}

	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// Session configures a REPL run.
type Session struct {
	// Interp holds the initial bindings. It is owned by the caller.
	Interp *interp.Interpreter
	// New returns an empty interpreter for :reset and :edit. Nil uses
	// interp.New with the registry of Interp.
	New func() *interp.Interpreter
	// CacheDir holds the history file. Empty keeps history in memory.
	CacheDir string
	Logger   log.Logger
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc       func() context.Context
	input         textinput.Model
	in            *interp.Interpreter
	newIn         func() *interp.Interpreter
	logger        log.Logger
	history       *History
	historyIdx    int
	matches       fuzzy.Matches // current fuzzy match results
	candidateList []string      // backing candidate list
	wordStart     int           // byte offset of current word start
	wordEnd       int           // byte offset of current word end
	suggIdx       int           // selected candidate index
	tabActive     bool          // whether user is tab-cycling
	preTabText    string        // input text before tab-cycling began
	preTabCursor  int           // cursor position before tab-cycling began
	width         int           // terminal width for ellipsization
	owned         bool          // whether in was created by the REPL
	quitting      bool
}

// Run starts the REPL over the bindings of s.Interp.
func Run(ctx context.Context, s Session) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if s.Interp == nil {
		return ErrNoSession
	}

	s.Logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", s.CacheDir),
		slog.Int("bindings", s.Interp.Env().Len()),
	)

	var historyPath string
	if s.CacheDir != "" {
		historyPath = filepath.Join(s.CacheDir, baseHistory)
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		s.Logger.WarnContext(ctx, "could not load history",
			slog.String("path", historyPath),
			slog.String("error", err.Error()),
		)
	}

	s.Logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, s, history)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := p.Run()

	if fm, ok := final.(model); ok && fm.owned {
		if cerr := fm.in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	s Session,
	history *History,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	newIn := s.New
	if newIn == nil {
		reg, logger := s.Interp.Registry(), s.Logger
		newIn = func() *interp.Interpreter {
			return interp.New(interp.WithLogger(logger), interp.WithRegistry(reg))
		}
	}

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		in:         s.Interp,
		newIn:      newIn,
		logger:     s.Logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		m = m.replace(msg.in)
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("bindings", m.in.Env().Len()),
		)

		return m, tea.Println(resultStyle.Render("✔ — bindings updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 — edit cancelled."))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(
			errorStyle.Render("🗴 — error: " + msg.err.Error()),
		)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Input line.
	b.WriteString(m.input.View())
	b.WriteString("\n")

	// Completion / hint line.
	input := m.input.Value()

	// Check if we're viewing history
	viewingHistory := m.historyIdx < m.history.Len()

	var (
		signature string
		params    []string
		argIndex  int
	)

	if !viewingHistory && strings.TrimSpace(input) != "" {
		signature, params, argIndex = getSignature(
			m.in.Registry(), detectCalls(input, m.input.Position()),
		)
	}

	switch {
	case viewingHistory:
		// Show history position indicator
		pos := m.historyIdx + 1 // 1-based for display
		total := m.history.Len()
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(pos)),
			total)
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render("Type a statement, or :help for commands"))

	case len(m.matches) > 0 && (m.tabActive || signature == ""):
		b.WriteString(renderCandidateBar(
			m.matches, m.suggIdx, m.tabActive, m.width,
		))

	case signature != "":
		// Show constructor or function signature with the current
		// parameter highlighted
		b.WriteString(renderSignatureHint(signature, params, argIndex))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.handleTab()

	case tea.KeyShiftTab:
		return m.handleShiftTab()

	case tea.KeyUp:
		return m.historyPrev()

	case tea.KeyDown:
		return m.historyNext()

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.input.SetValue("")
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyRunes:
		// Check for space as "breaking" key while tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		// Reset history index when typing
		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	// Reset history index when typing
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

func (m model) handleTab() (model, tea.Cmd) {
	return m.cycle(1), nil
}

func (m model) handleShiftTab() (model, tea.Cmd) {
	return m.cycle(-1), nil
}

// cycle moves the tab selection by step, wrapping around. A single
// candidate is completed and confirmed immediately.
func (m model) cycle(step int) model {
	if len(m.matches) == 0 {
		return m
	}

	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	n := len(m.matches)

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	// Update word boundaries for the replaced text.
	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state and
// the prompt style. When autoConfirm is true it also auto-confirms the
// completion when exactly one candidate remains and the typed word already
// equals that candidate. autoConfirm should be false for deletions and
// cursor navigation so that the user can freely edit without unexpected
// completions.
func refreshMatches(m *model, autoConfirm bool) {
	if strings.HasPrefix(strings.TrimSpace(m.input.Value()), cmdPrefix) {
		m.input.Prompt = ctrlPromptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	}

	m.matches, m.candidateList, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	// Auto-confirm when the typed word already equals the sole candidate.
	candidate := m.matches[0].Str
	word := m.input.Value()[m.wordStart:m.wordEnd]

	if word == candidate {
		replaceCurrentWord(m, candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.input.SetValue("")
	_, _ = m.history.Write(input)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	if cmd, ok := strings.CutPrefix(input, cmdPrefix); ok {
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl command",
			slog.String("input", input),
		)

		return m.executeCommand(input, cmd)
	}

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval",
		slog.String("input", input),
	)

	// Echo the statement
	echoCmd := tea.Println(formatCommand(input))

	out, err := m.evaluate(input)

	return m, tea.Sequence(echoCmd, printOutput(out, err))
}

// printOutput prints the result of a statement or command: out, then err.
func printOutput(out string, err error) tea.Cmd {
	var cmds []tea.Cmd

	if out != "" {
		cmds = append(cmds, tea.Println(resultStyle.Render(out)))
	}

	if err != nil {
		cmds = append(cmds, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	return tea.Sequence(cmds...)
}

// evaluate runs a statement, or shows a binding when input is a bound
// name. It returns the statements of every binding the input created or
// changed.
func (m model) evaluate(input string) (string, error) {
	e := m.in.Env()

	if lang.IsIdentifier(input) && e.Defined(input) {
		return statementLine(e, input), nil
	}

	src := input
	if !strings.HasSuffix(src, ";") {
		src += ";"
	}

	before := literals(e)

	err := m.in.EvalString(m.ctxFunc(), src)

	var changed []string

	for _, name := range e.Names() {
		if line := statementLine(e, name); before[name] != line {
			changed = append(changed, line)
		}
	}

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval result",
		slog.Int("changed", len(changed)),
		slog.Bool("failed", err != nil),
	)

	return strings.Join(changed, "\n"), err
}

func (m model) executeCommand(input, cmd string) (model, tea.Cmd) {
	// Parse command and arguments
	name, rest, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	rest = strings.TrimSpace(rest)

	echoCmd := tea.Println(formatCommand(input))

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", name),
		slog.String("args", rest),
	)

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.handleEdit())

	case "reset":
		m = m.replace(m.newIn())

		return m, tea.Sequence(echoCmd, printOutput("bindings cleared", nil))
	}

	out, err := m.command(name, rest)

	return m, tea.Sequence(echoCmd, printOutput(out, err))
}

// command runs the commands that only produce output.
func (m model) command(name, args string) (string, error) {
	e := m.in.Env()

	switch name {
	case "h", "help":
		return helpMessage(), nil

	case "p", "print":
		return printBindings(m.ctxFunc(), m.in, strings.Fields(args))

	case "t", "types":
		return typesView(m.in), nil

	case "query":
		if args == "" {
			return "", errors.New("usage: :query <expr>")
		}

		result, err := m.in.Query(m.ctxFunc(), args)
		if err != nil {
			return "", err
		}

		return fmt.Sprint(result), nil

	case "format":
		f := interp.FormatNative

		if args != "" {
			var err error
			if f, err = interp.ParseFormat(args); err != nil {
				return "", err
			}
		}

		var buf bytes.Buffer
		if err := m.in.Write(m.ctxFunc(), &buf, f, 2); err != nil {
			return "", err
		}

		return strings.TrimRight(buf.String(), "\n"), nil

	case "unset":
		var errs []error

		for _, name := range strings.Fields(args) {
			if !e.Unset(name) {
				errs = append(errs, env.ErrUndefinedVariable.
					With(slog.String("name", name)).
					Wrapf("%q is not bound", name))
			}
		}

		return "", errors.Join(errs...)
	}

	return "", fmt.Errorf("unknown command :%s (try :help)", name)
}

// replace swaps the interpreter, closing the previous one if the REPL
// created it.
func (m model) replace(in *interp.Interpreter) model {
	if m.owned {
		if err := m.in.Close(); err != nil {
			m.logger.WarnContext(m.ctxFunc(), "close bindings", slog.Any("error", err))
		}
	}

	m.in, m.owned = in, true
	refreshMatches(&m, false)

	return m
}

func (m model) handleEdit() tea.Cmd {
	cmd := &editCommand{
		in:      m.in,
		newIn:   m.newIn,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if cmd.result == nil {
			return editCancelledMsg{}
		}

		return editDoneMsg{in: cmd.result}
	})
}

func (m model) historyPrev() (model, tea.Cmd) {
	if m.historyIdx > 0 {
		m.historyIdx--

		if line, err := m.history.GetLine(m.historyIdx); err == nil {
			m.input.SetValue(line)
			m.input.SetCursor(len(line))
			refreshMatches(&m, false)
		}
	}

	return m, nil
}

func (m model) historyNext() (model, tea.Cmd) {
	if m.historyIdx < m.history.Len()-1 {
		m.historyIdx++

		if line, err := m.history.GetLine(m.historyIdx); err == nil {
			m.input.SetValue(line)
			m.input.SetCursor(len(line))
			refreshMatches(&m, false)
		}
	} else {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m, nil
}

// statementLine renders the binding of name as a statement.
func statementLine(e *env.Environment, name string) string {
	typeName, err := e.GetType(name)
	if err != nil {
		return ""
	}

	v, err := e.Get(name)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%s %s = %s;", typeName, name, v.Literal())
}

func literals(e *env.Environment) map[string]string {
	out := make(map[string]string, e.Len())
	for _, name := range e.Names() {
		out[name] = statementLine(e, name)
	}

	return out
}

// printBindings prints every binding, or only the named ones.
func printBindings(ctx context.Context, in *interp.Interpreter, names []string) (string, error) {
	if len(names) == 0 {
		var buf bytes.Buffer
		if err := in.Write(ctx, &buf, interp.FormatNative, 0); err != nil {
			return "", err
		}

		return strings.TrimRight(buf.String(), "\n"), nil
	}

	lines := make([]string, 0, len(names))

	for _, name := range names {
		if _, err := in.Env().GetType(name); err != nil {
			return strings.Join(lines, "\n"), err
		}

		lines = append(lines, statementLine(in.Env(), name))
	}

	return strings.Join(lines, "\n"), nil
}

// typesView lists the bound type tables and the constructible objects.
func typesView(in *interp.Interpreter) string {
	var b strings.Builder

	e := in.Env()
	for _, typeName := range e.Types() {
		t, err := e.GetBindingForType(typeName)
		if err != nil {
			continue
		}

		fmt.Fprintf(&b, "%s: %s\n", typeName, strings.Join(t.Names(), ", "))
	}

	if reg := in.Registry(); reg != nil {
		if b.Len() > 0 {
			b.WriteString("\n")
		}

		_ = reg.Print(&b)
	}

	return strings.TrimRight(b.String(), "\n")
}
