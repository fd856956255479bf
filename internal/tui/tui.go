// Package tui is the interactive terminal client for playing against a
// gofish server. All state comes from the server; the model renders
// snapshots and relays guesses.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/lox/gofish/internal/client"
	"github.com/lox/gofish/internal/deck"
	"github.com/lox/gofish/internal/game"
	"github.com/lox/gofish/internal/server"
)

// Model is the Bubble Tea model for a game in progress
type Model struct {
	client     *client.Client
	gameID     string
	playerName string
	logger     zerolog.Logger

	logViewport viewport.Model
	guessInput  textinput.Model

	snapshot server.GameSnapshot
	hand     server.PlayerSnapshot
	events   <-chan server.Message
	gameLog  []string

	width       int
	height      int
	initialized bool
	quitting    bool
}

type eventMsg server.Message

type eventsClosedMsg struct{}

type guessResultMsg struct {
	resolved server.GuessResolvedData
	err      error
}

type handMsg struct {
	hand server.PlayerSnapshot
	err  error
}

// NewModel creates a model for one seat of a game
func NewModel(c *client.Client, snapshot server.GameSnapshot, playerName string, events <-chan server.Message, logger zerolog.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Guess a rank (e.g. King, 7) or /quit"
	ti.Focus()
	ti.CharLimit = 40
	ti.Prompt = "> "

	return &Model{
		client:      c,
		gameID:      snapshot.ID,
		playerName:  playerName,
		logger:      logger.With().Str("component", "tui").Logger(),
		logViewport: vp,
		guessInput:  ti,
		snapshot:    snapshot,
		events:      events,
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenForEvent(), m.fetchHand())
}

func (m *Model) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(msg)
	}
}

func (m *Model) fetchHand() tea.Cmd {
	return func() tea.Msg {
		hand, err := m.client.Hand(context.Background(), m.gameID, m.playerName)
		return handMsg{hand: hand, err: err}
	}
}

func (m *Model) submitGuess(guess string) tea.Cmd {
	return func() tea.Msg {
		resolved, err := m.client.Guess(context.Background(), m.gameID, m.playerName, guess)
		return guessResultMsg{resolved: resolved, err: err}
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "enter":
			input := strings.TrimSpace(m.guessInput.Value())
			m.guessInput.SetValue("")
			switch {
			case input == "":
			case input == "/quit" || input == "quit":
				m.quitting = true
				return m, tea.Sequence(tea.ClearScreen, tea.Quit)
			case m.snapshot.Status == game.StatusOver:
				m.appendLog(InfoStyle.Render("The game is over"))
			case m.snapshot.Turn != m.playerName:
				m.appendLog(InfoStyle.Render(fmt.Sprintf("It is %s's turn", m.snapshot.Turn)))
			default:
				cmds = append(cmds, m.submitGuess(input))
			}
		}

	case eventMsg:
		m.handleEvent(server.Message(msg))
		cmds = append(cmds, m.listenForEvent(), m.fetchHand())

	case eventsClosedMsg:
		m.appendLog(ErrorStyle.Render("Lost connection to server"))

	case guessResultMsg:
		if msg.err != nil {
			m.appendLog(ErrorStyle.Render(msg.err.Error()))
		} else {
			m.snapshot = msg.resolved.Game
			cmds = append(cmds, m.fetchHand())
		}

	case handMsg:
		if msg.err == nil {
			m.hand = msg.hand
		}
	}

	var cmd tea.Cmd
	m.guessInput, cmd = m.guessInput.Update(msg)
	cmds = append(cmds, cmd)
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) resize() {
	m.logViewport.Width = m.width
	logHeight := m.height - 7
	if logHeight < 3 {
		logHeight = 3
	}
	m.logViewport.Height = logHeight
	m.initialized = true
	m.refreshLog()
}

func (m *Model) handleEvent(msg server.Message) {
	switch msg.Type {
	case server.TypeGuessResolved:
		var data server.GuessResolvedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.logger.Debug().Err(err).Msg("Bad event payload")
			return
		}
		if data.Game.ID != m.gameID {
			return
		}
		m.snapshot = data.Game
		m.logOutcome(data.Outcome)

	case server.TypeGameOver:
		var data server.GameOverData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		if data.Game.ID != m.gameID {
			return
		}
		m.snapshot = data.Game
		switch {
		case data.Drawn:
			m.appendLog(TurnStyle.Render("The deck is exhausted, the game is a draw"))
		case data.Winner == m.playerName:
			m.appendLog(SuccessStyle.Render("You win!"))
		default:
			m.appendLog(ErrorStyle.Render(fmt.Sprintf("%s wins", data.Winner)))
		}
	}
}

func (m *Model) logOutcome(outcome game.MoveOutcome) {
	who := outcome.Player
	if who == m.playerName {
		who = "You"
	}

	line := fmt.Sprintf("%s guessed %s: %s", who, outcome.Guess, outcome.Message)
	switch outcome.Result {
	case game.ResultMatch:
		m.appendLog(SuccessStyle.Render(line))
	case game.ResultGuessAgain:
		m.appendLog(InfoStyle.Render(line))
	default:
		m.appendLog(GameLogStyle.Render(line))
	}

	if outcome.Player == m.playerName && outcome.Drawn != nil {
		m.appendLog(GameLogStyle.Render("You drew the " + renderCard(*outcome.Drawn)))
	}
}

func (m *Model) appendLog(line string) {
	m.gameLog = append(m.gameLog, line)
	m.refreshLog()
}

func (m *Model) refreshLog() {
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

func renderCard(c deck.Card) string {
	if c.IsRed() {
		return RedCardStyle.Render(c.String())
	}
	return BlackCardStyle.Render(c.String())
}

func (m *Model) renderHand() string {
	if len(m.hand.Unmatched) == 0 {
		return InfoStyle.Render("(no cards)")
	}
	cards := make([]string, len(m.hand.Unmatched))
	for i, c := range m.hand.Unmatched {
		cards[i] = renderCard(c)
	}
	return strings.Join(cards, ", ")
}

func (m *Model) renderStatus() string {
	if m.snapshot.Status == game.StatusOver {
		if m.snapshot.Winner == "" {
			return TurnStyle.Render("Game over: draw")
		}
		return TurnStyle.Render(fmt.Sprintf("Game over: %s wins", m.snapshot.Winner))
	}
	if m.snapshot.Turn == m.playerName {
		return TurnStyle.Render("Your turn, guess a rank you hold")
	}
	return InfoStyle.Render(fmt.Sprintf("Waiting for %s...", m.snapshot.Turn))
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var matches string
	for _, p := range m.snapshot.Players {
		if matches != "" {
			matches += "  "
		}
		matches += fmt.Sprintf("%s: %d", p.Name, p.MatchCount)
	}

	header := HeaderStyle.Render(fmt.Sprintf(" Go Fish | %s | first to %d matches ", m.gameID, m.snapshot.MatchesToWin))

	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(fmt.Sprintf("Matches  %s   Deck: %d cards\n", matches, m.snapshot.DeckRemaining))
	b.WriteString(HandStyle.Render("Your hand: ") + m.renderHand() + "\n")
	b.WriteString(m.logViewport.View() + "\n")
	b.WriteString(m.renderStatus() + "\n")
	b.WriteString(m.guessInput.View())
	return b.String()
}

// Run plays one game interactively, blocking until the TUI exits.
func Run(ctx context.Context, c *client.Client, snapshot server.GameSnapshot, playerName string, logger zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := c.Events(ctx)
	if err != nil {
		return err
	}

	model := NewModel(c, snapshot, playerName, events, logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}
