package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/anvm-go/linkvm/linker"
	"github.com/anvm-go/linkvm/runtime"
	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// inspectorTab is one page of the interactive engine inspector,
// adapted from the teacher's function-browser state machine
// (cmd/run/interactive.go's modelState) to page through a linked
// engine's modules, operand stack, memory and globals instead of a
// component's WIT surface.
type inspectorTab int

const (
	tabModules inspectorTab = iota
	tabStack
	tabMemory
	tabGlobals
	tabCount
)

func (t inspectorTab) String() string {
	return [...]string{"Modules", "Stack", "Memory", "Globals"}[t]
}

type inspectorModel struct {
	moduleName string
	engine     *runtime.Engine
	err        error
	tab        inspectorTab
	scroll     int

	invokedFunc string
	invokedArgs []value.Value
	results     []value.Value
	invokeErr   error
}

func newInspectorModel(moduleName string, e *runtime.Engine) *inspectorModel {
	return &inspectorModel{moduleName: moduleName, engine: e}
}

func (m *inspectorModel) Init() tea.Cmd { return nil }

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "left", "h":
		m.tab = (m.tab - 1 + tabCount) % tabCount
		m.scroll = 0
	case "right", "l", "tab":
		m.tab = (m.tab + 1) % tabCount
		m.scroll = 0
	case "up", "k":
		if m.scroll > 0 {
			m.scroll--
		}
	case "down", "j":
		m.scroll++
	}
	return m, nil
}

func (m *inspectorModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("linkvm inspector"))
	b.WriteString(" ")
	b.WriteString(m.moduleName)
	b.WriteString("\n\n")

	for t := inspectorTab(0); t < tabCount; t++ {
		if t == m.tab {
			b.WriteString(activeTabStyle.Render(t.String()))
		} else {
			b.WriteString(tabStyle.Render(t.String()))
		}
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		b.WriteString(m.renderTab())
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("←/→ switch tab • ↑/↓ scroll • q quit"))
	return b.String()
}

func (m *inspectorModel) renderTab() string {
	link := m.engine.Result()
	if link == nil {
		return "engine not loaded"
	}
	switch m.tab {
	case tabModules:
		return m.renderModules(link)
	case tabStack:
		return m.renderStack()
	case tabMemory:
		return m.renderMemory(link)
	case tabGlobals:
		return m.renderGlobals(link)
	default:
		return ""
	}
}

func (m *inspectorModel) renderModules(link *linker.Result) string {
	var b strings.Builder
	for i, name := range link.ModuleNames {
		fmt.Fprintf(&b, "%s %s\n", rowStyle.Render(fmt.Sprintf("[%d]", i)), name)
		for _, e := range link.Modules[i].Exports {
			fmt.Fprintf(&b, "    %-8s %s\n", e.Kind, e.Name)
		}
	}
	return b.String()
}

func (m *inspectorModel) renderMemory(link *linker.Result) string {
	modIdx, ok := link.FindModule(m.moduleName)
	if !ok {
		return "module not found"
	}
	mem := link.Memories[modIdx]
	if mem == nil {
		return "(no memory)"
	}
	const rowBytes = 16
	data := mem.Bytes()
	start := m.scroll * rowBytes
	if start >= len(data) {
		start = 0
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d page(s), %d byte(s)\n\n", mem.Pages(), len(data))
	for addr := start; addr < len(data) && addr < start+rowBytes*16; addr += rowBytes {
		end := addr + rowBytes
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(&b, "%08x  % x\n", addr, data[addr:end])
	}
	return b.String()
}

// renderStack shows the result of the last invocation requested via
// -func/-invoke, since Engine.Invoke does not retain its VM (and
// therefore its operand stack) once a call returns; the externally
// observable remnant of the operand stack at that point is exactly
// its result values, per the "balanced at ProgramEnd" property.
func (m *inspectorModel) renderStack() string {
	if m.invokedFunc == "" {
		return "pass -func (and optionally -invoke) alongside -i to invoke a function before inspecting its results here"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s.%s(%s)\n\n", m.moduleName, m.invokedFunc, formatValues(m.invokedArgs))
	if m.invokeErr != nil {
		fmt.Fprintf(&b, "trap: %v\n", m.invokeErr)
		return b.String()
	}
	if len(m.results) == 0 {
		b.WriteString("(no results)\n")
		return b.String()
	}
	for i, v := range m.results {
		fmt.Fprintf(&b, "[%d] %s\n", i, formatValue(v))
	}
	return b.String()
}

func (m *inspectorModel) renderGlobals(link *linker.Result) string {
	modIdx, ok := link.FindModule(m.moduleName)
	if !ok {
		return "module not found"
	}
	var b strings.Builder
	for i, g := range link.Globals[modIdx] {
		fmt.Fprintf(&b, "[%d] %s mutable=%v value=%s\n", i, g.Type, g.Mutable, formatValue(g.Get()))
	}
	return b.String()
}

// runInteractive loads mod under moduleName and opens the TUI
// inspector over the resulting engine. When funcName is non-empty it
// is invoked with args first, and the Stack tab shows the outcome.
func runInteractive(moduleName string, mod *wasm.Module, funcName string, args []value.Value) error {
	e := runtime.New()
	if err := e.Load([]linker.NamedModule{{Name: moduleName, Module: mod}}); err != nil {
		return fmt.Errorf("link/load: %w", err)
	}

	m := newInspectorModel(moduleName, e)
	if funcName != "" {
		m.invokedFunc = funcName
		m.invokedArgs = args
		m.results, m.invokeErr = e.Invoke(moduleName, funcName, args)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
