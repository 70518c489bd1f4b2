package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Approach      key.Binding
	OLS           key.Binding
	Buildings     key.Binding
	Roads         key.Binding
	LoadAll       key.Binding
	LoadBuildings key.Binding
	LoadRoads     key.Binding
	Reset         key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Approach:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approach")),
		OLS:           key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "ols")),
		Buildings:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "buildings")),
		Roads:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "roads")),
		LoadAll:       key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "load all")),
		LoadBuildings: key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "load buildings")),
		LoadRoads:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "load roads")),
		Reset:         key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Approach, k.OLS, k.Buildings, k.Roads, k.LoadAll, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Approach, k.OLS, k.Buildings, k.Roads},
		{k.LoadAll, k.LoadBuildings, k.LoadRoads},
		{k.Reset, k.Help, k.Quit},
	}
}
