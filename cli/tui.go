package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fahmaliyi/credvault/vault"
	"github.com/spf13/cobra"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Show   key.Binding
	Copy   key.Binding
	Delete key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Show, k.Copy, k.Delete, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Back}}
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
	Show:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "show")),
	Copy:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy password")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	msgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("0"))
)

type clipClearedMsg struct{ err error }

// removeFunc deletes an entry from the vault file and returns the saved store.
type removeFunc func(name string) (*vault.Store, error)

type model struct {
	store      *vault.Store
	cursor     int
	showing    bool
	clipboard  Clipboard
	clearAfter time.Duration
	remove     removeFunc
	help       help.Model
	clearDue   bool
	msg        string
	err        error
}

func newModel(store *vault.Store, cb Clipboard, clearAfter time.Duration, remove removeFunc) model {
	return model{
		store:      store,
		clipboard:  cb,
		clearAfter: clearAfter,
		remove:     remove,
		help:       help.New(),
	}
}

func newBrowseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse entries interactively",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := askPassword(app.Prompter, "Master password: ")
			if err != nil {
				return err
			}
			defer vault.Zero(pw)

			v, err := app.openVault()
			if err != nil {
				return err
			}
			store, err := v.Open(pw)
			if err != nil {
				return err
			}

			remove := func(name string) (*vault.Store, error) {
				return v.RemoveEntry(pw, name)
			}
			m := newModel(store, app.Clipboard, app.clipTimeout(), remove)
			p := tea.NewProgram(m, tea.WithInput(app.In), tea.WithOutput(app.Out))
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("run browser: %w", err)
			}
			if fm, ok := final.(model); ok && fm.clearDue {
				// Quit before the scheduled clear fired.
				return app.Clipboard.WriteAll("")
			}
			return nil
		},
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) selected() (vault.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.store.Entries) {
		return vault.Entry{}, false
	}
	return m.store.Entries[m.cursor], true
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clipClearedMsg:
		m.err = msg.err
		m.msg = ""
		m.clearDue = false
		return m, nil
	case tea.KeyMsg:
		if m.showing {
			if key.Matches(msg, keys.Back, keys.Show) {
				m.showing = false
			} else if key.Matches(msg, keys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.store.Entries)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Show):
		if _, ok := m.selected(); ok {
			m.showing = true
		}
	case key.Matches(msg, keys.Copy):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.clipboard.WriteAll(e.PasswordOr("")); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		if m.clearAfter <= 0 {
			m.msg = "Password copied!"
			return m, nil
		}
		m.msg = fmt.Sprintf("Password copied! (clears in %s)", m.clearAfter)
		m.clearDue = true
		cb := m.clipboard
		return m, tea.Tick(m.clearAfter, func(time.Time) tea.Msg {
			return clipClearedMsg{err: cb.WriteAll("")}
		})
	case key.Matches(msg, keys.Delete):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		store, err := m.remove(e.Name)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.store = store
		m.err = nil
		m.msg = fmt.Sprintf("Removed %q", e.Name)
		if m.cursor >= len(m.store.Entries) && m.cursor > 0 {
			m.cursor--
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	if m.showing {
		e, _ := m.selected()
		b.WriteString(titleStyle.Render(e.Name) + "\n\n")
		fmt.Fprintf(&b, "Username: %s\nPassword: ********\n", e.UsernameOr("(none)"))
		b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{keys.Back, keys.Quit}))
		return b.String()
	}

	b.WriteString(titleStyle.Render("Vault: "+m.store.Name) + "\n\n")
	if len(m.store.Entries) == 0 {
		b.WriteString("(no entries)\n")
	}
	for i, e := range m.store.Entries {
		line := fmt.Sprintf("%-30s  %-20s", e.Name, e.UsernameOr(""))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errStyle.Render(describe(m.err)))
	} else if m.msg != "" {
		b.WriteString("\n" + msgStyle.Render(m.msg))
	}
	b.WriteString("\n" + m.help.View(keys))
	return b.String()
}
