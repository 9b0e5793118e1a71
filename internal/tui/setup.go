package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type SetupModel struct {
	urlInput  textinput.Model
	topKInput textinput.Model
	focus     int
	error     string
	width     int
	height    int
}

func NewSetupModel(baseURL string, topK int) SetupModel {
	urlInput := textinput.New()
	urlInput.Placeholder = "http://localhost:8000"
	urlInput.SetValue(baseURL)
	urlInput.Focus()
	urlInput.Width = 60

	topKInput := textinput.New()
	topKInput.Placeholder = "20"
	if topK > 0 {
		topKInput.SetValue(strconv.Itoa(topK))
	}
	topKInput.CharLimit = 4
	topKInput.Width = 10

	return SetupModel{
		urlInput:  urlInput,
		topKInput: topKInput,
	}
}

func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "shift+tab", "up", "down":
			m.switchFocus()
			return m, nil

		case "enter":
			baseURL := strings.TrimSpace(m.urlInput.Value())
			if baseURL == "" {
				m.error = "Service URL is required"
				return m, nil
			}

			topK := 0
			if raw := strings.TrimSpace(m.topKInput.Value()); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n <= 0 {
					m.error = "Result count must be a positive number"
					return m, nil
				}
				topK = n
			}

			m.error = ""
			return m, func() tea.Msg {
				return SetupSubmitMsg{BaseURL: baseURL, TopK: topK}
			}
		}
		cmd = m.updateFocused(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case SetupErrorMsg:
		m.error = msg.Error

	default:
		cmd = m.updateFocused(msg)
	}

	return m, cmd
}

func (m *SetupModel) switchFocus() {
	if m.focus == 0 {
		m.focus = 1
		m.urlInput.Blur()
		m.topKInput.Focus()
		return
	}
	m.focus = 0
	m.topKInput.Blur()
	m.urlInput.Focus()
}

func (m *SetupModel) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == 0 {
		m.urlInput, cmd = m.urlInput.Update(msg)
	} else {
		m.topKInput, cmd = m.topKInput.Update(msg)
	}
	return cmd
}

func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("efind - Setup") + "\n\n")
	b.WriteString("efind talks to an emoji search service over HTTP.\n")
	b.WriteString("Enter the address it listens on; it is checked before saving.\n\n")

	urlLabel := "Service URL:"
	if m.focus == 0 {
		urlLabel = activeStyle.Render("> " + urlLabel)
	} else {
		urlLabel = "  " + urlLabel
	}
	b.WriteString(urlLabel + "\n")
	b.WriteString(inputStyle.Render(m.urlInput.View()) + "\n\n")

	topKLabel := "Results per search:"
	if m.focus == 1 {
		topKLabel = activeStyle.Render("> " + topKLabel)
	} else {
		topKLabel = "  " + topKLabel
	}
	b.WriteString(topKLabel + "\n")
	b.WriteString(inputStyle.Render(m.topKInput.View()) + "\n")

	if m.error != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.error) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("tab switch field  enter save  esc cancel"))

	return b.String()
}
