package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/r9s-ai/devserve/internal/config"
	"github.com/r9s-ai/devserve/internal/lockfile"
	"github.com/r9s-ai/devserve/internal/resolve"
)

type browserState int

const (
	browserStateList browserState = iota
	browserStateDetail
)

type browserKeyMap struct {
	Open   key.Binding
	Back   key.Binding
	Reload key.Binding
	Quit   key.Binding
}

func (k browserKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Reload, k.Quit}
}

func (k browserKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Back, k.Reload},
		{k.Quit},
	}
}

var browserKeys = browserKeyMap{
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "b"),
		key.WithHelp("esc/b", "back"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload lock file"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// packageInfo is one lock file entry as the dev server would see it.
type packageInfo struct {
	ID      string
	Name    string
	Version string
	// Match is the identifier /@modules/<Name> actually selects. It differs
	// from ID when an earlier entry shadows this one.
	Match string
	Entry string
	Err   error
}

type packageItem struct {
	info packageInfo
}

func (i packageItem) Title() string {
	v := i.info.Version
	if v == "" {
		v = "-"
	}
	return fmt.Sprintf("%s  %s", i.info.Name, v)
}

func (i packageItem) Description() string {
	switch {
	case i.info.Match != "" && i.info.Match != i.info.ID:
		return "shadowed by " + i.info.Match
	case i.info.Err != nil:
		return "error: " + i.info.Err.Error()
	default:
		return resolve.Prefix + i.info.Name + " -> " + i.info.Entry
	}
}

func (i packageItem) FilterValue() string {
	return strings.ToLower(i.info.Name + " " + i.info.Version + " " + i.info.ID)
}

type browserModel struct {
	cfg *config.Config

	state browserState
	list  list.Model
	vp    viewport.Model
	help  help.Model
	keys  browserKeyMap

	width  int
	height int

	lockPath string
	selected string
	err      error
}

type packagesMsg struct {
	items []packageInfo
	err   error
}

type manifestMsg struct {
	id      string
	content string
	err     error
}

func newBrowserProgram(cfg *config.Config, in io.Reader, out io.Writer) *tea.Program {
	m := newBrowserModel(cfg)
	return tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
}

func newBrowserModel(cfg *config.Config) browserModel {
	d := list.NewDefaultDelegate()
	d.ShowDescription = true
	d.SetSpacing(0)

	l := list.New(nil, d, 0, 0)
	l.Title = "Packages"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.DisableQuitKeybindings()

	h := help.New()
	h.ShowAll = false

	return browserModel{
		cfg:      cfg,
		state:    browserStateList,
		list:     l,
		vp:       viewport.New(0, 0),
		help:     h,
		keys:     browserKeys,
		lockPath: cfg.LockFilePath(),
	}
}

func (m browserModel) Init() tea.Cmd {
	return m.loadPackagesCmd()
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case packagesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.items))
		for _, p := range msg.items {
			items = append(items, packageItem{info: p})
		}
		m.list.SetItems(items)
		m.err = nil
		return m, nil

	case manifestMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selected = msg.id
		m.vp.SetContent(msg.content)
		m.vp.GotoTop()
		m.state = browserStateDetail
		m.resize()
		m.err = nil
		return m, nil

	case tea.KeyMsg:
		// Keys typed into the filter belong to the list.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case m.state == browserStateDetail && key.Matches(msg, m.keys.Back):
			m.state = browserStateList
			m.resize()
			return m, nil
		case key.Matches(msg, m.keys.Reload):
			return m, m.loadPackagesCmd()
		case m.state == browserStateList && key.Matches(msg, m.keys.Open):
			it, ok := m.list.SelectedItem().(packageItem)
			if !ok {
				return m, nil
			}
			return m, m.readManifestCmd(it.info)
		}
	}

	switch m.state {
	case browserStateList:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	case browserStateDetail:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m browserModel) View() string {
	var b strings.Builder
	switch m.state {
	case browserStateList:
		header := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Lock file  %s  packages=%d", m.lockPath, len(m.list.Items())))
		b.WriteString(header)
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("error: " + m.err.Error()))
			b.WriteString("\n\n")
		}
		b.WriteString(m.list.View())
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("Tip: press / to filter by name or version, esc to clear filter"))
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()

	case browserStateDetail:
		b.WriteString(lipgloss.NewStyle().Bold(true).Render("Package  " + m.selected))
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("error: " + m.err.Error()))
			b.WriteString("\n\n")
		}
		b.WriteString(m.vp.View())
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
		return b.String()
	default:
		return ""
	}
}

func (m *browserModel) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}

	helpHeight := 1
	if m.help.ShowAll {
		helpHeight = 3
	}
	headerLines := 1
	if m.err != nil {
		headerLines += 2
	}

	switch m.state {
	case browserStateList:
		avail := max(m.height-headerLines-1-helpHeight, 5)
		m.list.SetSize(m.width, avail)
	case browserStateDetail:
		m.vp.Width = m.width
		m.vp.Height = max(m.height-headerLines-helpHeight, 5)
	}
}

func (m browserModel) loadPackagesCmd() tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		items, err := loadPackages(cfg)
		return packagesMsg{items: items, err: err}
	}
}

func (m browserModel) readManifestCmd(p packageInfo) tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		content, err := describePackage(cfg, p)
		return manifestMsg{id: p.ID, content: content, err: err}
	}
}

func newResolver(cfg *config.Config, idx *lockfile.Index) *resolve.Resolver {
	return resolve.New(os.DirFS(cfg.Project.Root), idx, resolve.Options{
		StoreDir:    cfg.Resolve.StoreDir,
		EntryFields: cfg.Resolve.EntryFields,
	})
}

// loadPackages re-reads the lock file from disk on every call.
func loadPackages(cfg *config.Config) ([]packageInfo, error) {
	idx, err := lockfile.Load(cfg.LockFilePath())
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, fmt.Errorf("no lock file at %s", cfg.LockFilePath())
	}
	r := newResolver(cfg, idx)
	ids := idx.IDs()
	out := make([]packageInfo, 0, len(ids))
	for _, id := range ids {
		name, version := lockfile.SplitID(id)
		p := packageInfo{ID: id, Name: name, Version: version}
		p.Match, _ = idx.Match(name)
		p.Entry, p.Err = r.Resolve(name)
		out = append(out, p)
	}
	return out, nil
}

func describePackage(cfg *config.Config, p packageInfo) (string, error) {
	idx, err := lockfile.Load(cfg.LockFilePath())
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "id:       %s\n", p.ID)
	fmt.Fprintf(&b, "store:    %s\n", lockfile.StoreDirName(p.ID))
	if p.Match != "" && p.Match != p.ID {
		fmt.Fprintf(&b, "served:   %s (first match in lock file order)\n", p.Match)
	}
	if p.Err != nil {
		fmt.Fprintf(&b, "entry:    error: %v\n", p.Err)
	} else {
		fmt.Fprintf(&b, "entry:    %s\n", p.Entry)
	}

	raw, dir, err := newResolver(cfg, idx).Manifest(p.Name)
	if err != nil {
		fmt.Fprintf(&b, "\n%v\n", err)
		return b.String(), nil
	}
	fmt.Fprintf(&b, "\n%s/package.json\n\n", dir)
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		b.Write(raw)
	} else {
		b.Write(pretty.Bytes())
	}
	b.WriteByte('\n')
	return b.String(), nil
}
