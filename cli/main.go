package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultIngredients = "chicken breast, broccoli, rice, soy sauce"

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

const (
	viewInput   = "input"
	viewRecipes = "recipes"
	viewDetail  = "detail"
)

// Model defines the application state
type Model struct {
	textInput   textinput.Model
	recipeList  list.Model
	spinner     spinner.Model
	client      *ApiClient
	recipes     []Recipe
	selected    int
	loading     bool
	healthy     bool
	currentView string
	error       string
}

// recipeItem represents a recipe in the list
type recipeItem struct {
	index int
	title string
	desc  string
}

func (i recipeItem) Title() string       { return i.title }
func (i recipeItem) Description() string { return i.desc }
func (i recipeItem) FilterValue() string { return i.title }

// Initialize the model
func initialModel(client *ApiClient) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "e.g., " + defaultIngredients
	ti.SetValue(defaultIngredients)
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	recipeList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	recipeList.Title = "Recipes"

	return Model{
		textInput:   ti,
		recipeList:  recipeList,
		spinner:     s,
		client:      client,
		currentView: viewInput,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, checkHealth(m.client))
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.recipeList.SetSize(msg.Width-h, msg.Height-v)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentView != viewInput {
				return m, tea.Quit
			}
		case "enter":
			switch m.currentView {
			case viewInput:
				if m.loading {
					return m, nil
				}
				m.loading = true
				m.error = ""
				m.recipes = nil
				m.textInput.Blur()
				return m, tea.Batch(m.spinner.Tick, generateRecipes(m.client, m.textInput.Value()))
			case viewRecipes:
				if selected, ok := m.recipeList.SelectedItem().(recipeItem); ok {
					m.selected = selected.index
					m.currentView = viewDetail
				}
				return m, nil
			case viewDetail:
				m.currentView = viewRecipes
				return m, nil
			}
		case "esc":
			switch m.currentView {
			case viewDetail:
				m.currentView = viewRecipes
			case viewRecipes:
				m.currentView = viewInput
				m.textInput.Focus()
			}
			return m, nil
		}
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case healthMsg:
		m.healthy = msg.ok
		if !msg.ok {
			m.error = fmt.Sprintf("API server at %s is not available", m.client.BaseURL)
		}
		return m, nil
	case recipesMsg:
		m.loading = false
		m.recipes = msg.recipes
		m.recipeList.SetItems(convertRecipesToItems(msg.recipes))
		m.currentView = viewRecipes
		return m, nil
	case errorMsg:
		m.loading = false
		m.error = msg.err
		m.textInput.Focus()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentView {
	case viewInput:
		if !m.loading {
			m.textInput, cmd = m.textInput.Update(msg)
		}
	case viewRecipes:
		m.recipeList, cmd = m.recipeList.Update(msg)
	}

	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	switch m.currentView {
	case viewInput:
		view := titleStyle.Render("AI Recipe Generator") + "\n\n"
		view += "Enter the ingredients you have:\n\n"
		view += m.textInput.View() + "\n\n"
		if m.loading {
			view += m.spinner.View() + " The AI chef is thinking...\n"
		} else {
			view += infoStyle.Render("enter") + " Generate Recipes  " + infoStyle.Render("ctrl+c") + " quit\n"
		}
		if m.error != "" {
			view += "\n" + errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(view)
	case viewRecipes:
		help := "\nPress 'enter' to view a recipe, 'esc' to change ingredients, 'q' to quit\n"
		return docStyle.Render(m.recipeList.View() + help)
	case viewDetail:
		if m.selected < 0 || m.selected >= len(m.recipes) {
			return docStyle.Render("No recipe selected")
		}
		return docStyle.Render(recipeDetailView(m.recipes[m.selected]))
	default:
		return "Loading..."
	}
}

// Custom message types for the tea.Model
type recipesMsg struct {
	recipes []Recipe
}

type errorMsg struct {
	err string
}

type healthMsg struct {
	ok bool
}

// generateRecipes requests recipes from the API
func generateRecipes(client *ApiClient, ingredients string) tea.Cmd {
	return func() tea.Msg {
		recipes, err := client.GenerateRecipes(context.Background(), ingredients)
		if err != nil {
			return errorMsg{err: err.Error()}
		}
		return recipesMsg{recipes: recipes}
	}
}

// checkHealth pings the API once at startup
func checkHealth(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		ok, _ := client.CheckHealth(ctx)
		return healthMsg{ok: ok}
	}
}

// convertRecipesToItems converts API recipes to list items
func convertRecipesToItems(recipes []Recipe) []list.Item {
	items := make([]list.Item, len(recipes))
	for i, r := range recipes {
		items[i] = recipeItem{
			index: i,
			title: r.RecipeName,
			desc:  fmt.Sprintf("Prep %s - Cook %s", r.PrepTime, r.CookTime),
		}
	}
	return items
}

// recipeDetailView creates a detailed view of a recipe
func recipeDetailView(r Recipe) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.RecipeName) + "\n\n")
	b.WriteString(r.Description + "\n\n")
	fmt.Fprintf(&b, "Prep: %s   Cook: %s\n", r.PrepTime, r.CookTime)

	b.WriteString("\nIngredients:\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "• %s\n", ing)
	}

	b.WriteString("\nInstructions:\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	b.WriteString("\nPress 'enter' or 'esc' to go back to the list")
	return b.String()
}

func main() {
	p := tea.NewProgram(initialModel(NewApiClient()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
