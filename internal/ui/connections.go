package ui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/esterm/internal/conn"
	"github.com/unkn0wn-root/esterm/internal/esapi"
	"github.com/unkn0wn-root/esterm/internal/query"
	"github.com/unkn0wn-root/esterm/internal/theme"
	"github.com/unkn0wn-root/esterm/internal/wire"
)

const (
	fieldName = iota
	fieldBaseURL
	fieldUsername
	fieldPassword
	fieldAPIKey
	fieldCAFile
	fieldSSHTarget
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Name",
	"Base URL",
	"Username",
	"Password",
	"API key",
	"CA file",
	"SSH target",
}

type profileItem struct {
	profile conn.Profile
}

func (p profileItem) Title() string { return p.profile.Name }

func (p profileItem) Description() string {
	parts := []string{p.profile.BaseURL, string(p.profile.AuthType)}
	if p.profile.SSHTarget != "" {
		parts = append(parts, "ssh:"+p.profile.SSHTarget)
	}
	if p.profile.Kube != nil {
		parts = append(parts, "kube:"+p.profile.Kube.Service)
	}
	return strings.Join(parts, "  ")
}

func (p profileItem) FilterValue() string { return p.profile.Name + " " + p.profile.BaseURL }

type connForm struct {
	id        string
	createdAt time.Time
	inputs    [fieldCount]textinput.Model
	focus     int
	authType  conn.AuthType
	verifyTLS bool
	errText   string
}

type connState struct {
	list          list.Model
	form          *connForm
	confirmDelete string
}

func newConnState(th theme.Theme) connState {
	delegate := listDelegateForTheme(th, true, 3)
	profileList := list.New(nil, delegate, 0, 0)
	profileList.Title = "Connections"
	profileList.SetShowStatusBar(false)
	profileList.SetShowHelp(false)
	profileList.SetShowTitle(false)
	profileList.SetFilteringEnabled(true)
	profileList.DisableQuitKeybindings()
	return connState{list: profileList}
}

func (m *Model) syncProfileList() {
	if m.profiles == nil {
		return
	}
	all, err := m.profiles.All()
	if err != nil {
		m.setStatus(statusWarn, "load profiles: %v", err)
		return
	}
	items := make([]list.Item, len(all))
	for i, p := range all {
		items[i] = profileItem{profile: p}
	}
	m.conns.list.SetItems(items)
}

func (m *Model) selectedProfile() (conn.Profile, bool) {
	item, ok := m.conns.list.SelectedItem().(profileItem)
	if !ok {
		return conn.Profile{}, false
	}
	return item.profile, true
}

func newConnForm(p conn.Profile, sec conn.Secrets) *connForm {
	form := &connForm{
		id:        p.ID,
		createdAt: p.CreatedAt,
		authType:  p.AuthType,
		verifyTLS: p.VerifyTLS,
	}
	if form.authType == "" {
		form.authType = conn.AuthNone
	}
	placeholders := [fieldCount]string{
		"staging cluster",
		"https://search.example.com:9200",
		"elastic",
		"",
		"",
		"/etc/ssl/cluster-ca.pem",
		"user@bastion.example.com:22",
	}
	values := [fieldCount]string{
		p.Name, p.BaseURL, p.Username, sec.Password, sec.APIKey, p.CAFile, p.SSHTarget,
	}
	for i := 0; i < fieldCount; i++ {
		input := textinput.New()
		input.Placeholder = placeholders[i]
		input.Prompt = ""
		input.CharLimit = 0
		input.SetValue(values[i])
		if i == fieldPassword || i == fieldAPIKey {
			input.EchoMode = textinput.EchoPassword
		}
		form.inputs[i] = input
	}
	form.inputs[0].Focus()
	return form
}

func (f *connForm) setFocus(idx int) {
	if idx < 0 {
		idx = fieldCount - 1
	}
	if idx >= fieldCount {
		idx = 0
	}
	f.inputs[f.focus].Blur()
	f.focus = idx
	f.inputs[f.focus].Focus()
}

func (f *connForm) cycleAuth() {
	switch f.authType {
	case conn.AuthNone:
		f.authType = conn.AuthBasic
	case conn.AuthBasic:
		f.authType = conn.AuthAPIKey
	default:
		f.authType = conn.AuthNone
	}
}

func (m *Model) updateConnections(msg tea.Msg) tea.Cmd {
	if m.conns.form != nil {
		return m.updateConnForm(msg)
	}

	if m.conns.confirmDelete != "" {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "y", "Y":
				id := m.conns.confirmDelete
				m.conns.confirmDelete = ""
				m.deleteProfile(id)
			case "n", "N", "esc":
				m.conns.confirmDelete = ""
			}
		}
		return nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.conns.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "n":
			m.conns.form = newConnForm(conn.Profile{VerifyTLS: true}, conn.Secrets{})
			return nil
		case "e":
			if p, ok := m.selectedProfile(); ok {
				sec := conn.Secrets{}
				if m.secrets != nil {
					if loaded, err := m.secrets.Get(p.ID); err == nil {
						sec = loaded
					}
				}
				m.conns.form = newConnForm(p, sec)
			}
			return nil
		case "d":
			if p, ok := m.selectedProfile(); ok {
				m.conns.confirmDelete = p.ID
			}
			return nil
		case "t":
			if p, ok := m.selectedProfile(); ok {
				return m.testProfile(p)
			}
			return nil
		case "enter":
			if p, ok := m.selectedProfile(); ok {
				return m.connect(p)
			}
			return nil
		}
	}

	var cmd tea.Cmd
	m.conns.list, cmd = m.conns.list.Update(msg)
	return cmd
}

func (m *Model) updateConnForm(msg tea.Msg) tea.Cmd {
	form := m.conns.form
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.conns.form = nil
			return nil
		case "tab", "down":
			form.setFocus(form.focus + 1)
			return nil
		case "shift+tab", "up":
			form.setFocus(form.focus - 1)
			return nil
		case "ctrl+a":
			form.cycleAuth()
			return nil
		case "ctrl+s":
			form.verifyTLS = !form.verifyTLS
			return nil
		case "enter":
			return m.submitConnForm()
		}
	}
	var cmd tea.Cmd
	form.inputs[form.focus], cmd = form.inputs[form.focus].Update(msg)
	return cmd
}

func (m *Model) submitConnForm() tea.Cmd {
	form := m.conns.form
	profile := conn.Profile{
		ID:        form.id,
		Name:      form.inputs[fieldName].Value(),
		BaseURL:   form.inputs[fieldBaseURL].Value(),
		AuthType:  form.authType,
		Username:  form.inputs[fieldUsername].Value(),
		VerifyTLS: form.verifyTLS,
		CAFile:    strings.TrimSpace(form.inputs[fieldCAFile].Value()),
		SSHTarget: strings.TrimSpace(form.inputs[fieldSSHTarget].Value()),
		CreatedAt: form.createdAt,
	}
	secrets := conn.Secrets{
		Password: form.inputs[fieldPassword].Value(),
		APIKey:   form.inputs[fieldAPIKey].Value(),
	}
	if existing, ok, _ := m.profiles.Get(form.id); ok {
		profile.Kube = existing.Kube
	}

	if err := conn.Normalize(&profile, &secrets); err != nil {
		form.errText = err.Error()
		return nil
	}
	saved, err := m.profiles.Save(profile)
	if err != nil {
		form.errText = err.Error()
		return nil
	}
	if m.secrets != nil {
		if err := m.secrets.Put(saved.ID, secrets); err != nil {
			form.errText = err.Error()
			return nil
		}
	}
	m.conns.form = nil
	m.syncProfileList()
	m.setStatus(statusSuccess, "Saved connection %q", saved.Name)
	return nil
}

func (m *Model) deleteProfile(id string) {
	removed, err := m.profiles.Delete(id)
	if err != nil {
		m.setStatus(statusWarn, "delete profile: %v", err)
		return
	}
	if !removed {
		return
	}
	if m.secrets != nil {
		if err := m.secrets.Delete(id); err != nil {
			m.setStatus(statusWarn, "delete secrets: %v", err)
		}
	}
	if m.connected && m.active.ID == id {
		m.disconnect()
	}
	m.syncProfileList()
	m.setStatus(statusInfo, "Connection deleted")
}

// connect resolves the profile and rebuilds the per-surface clients. The
// cluster probe runs async; resolution errors surface immediately.
func (m *Model) connect(p conn.Profile) tea.Cmd {
	sec := conn.Secrets{}
	if m.secrets != nil {
		loaded, err := m.secrets.Get(p.ID)
		if err != nil {
			m.setStatus(statusWarn, "read secrets: %v", err)
			return nil
		}
		sec = loaded
	}
	desc, err := conn.Resolve(p, sec)
	if err != nil {
		m.setStatus(statusError, "connect: %v", err)
		return nil
	}
	if m.newClient == nil {
		m.setStatus(statusError, "connect: no client factory configured")
		return nil
	}
	base, err := m.newClient(desc)
	if err != nil {
		m.setStatus(statusError, "connect: %v", err)
		return nil
	}

	observed := wire.WithObserver(base, m.trace)
	m.clients = surfaceClients{
		cluster: wire.WithTelemetry(observed, m.inst, "cluster"),
		browse:  wire.WithTelemetry(observed, m.inst, "browse"),
		query:   wire.WithTelemetry(observed, m.inst, "query"),
		console: wire.WithTelemetry(observed, m.inst, "console"),
		indices: wire.WithTelemetry(observed, m.inst, "indices"),
	}
	m.connected = true
	m.active = p
	m.desc = desc
	m.clusterInfo = nil
	m.clusterHealth = nil
	m.setStatus(statusInfo, "Connecting to %s...", p.Name)
	return m.probeClusterCmd()
}

func (m *Model) disconnect() {
	m.connected = false
	m.active = conn.Profile{}
	m.desc = conn.Descriptor{}
	m.clients = surfaceClients{}
	m.clusterInfo = nil
	m.clusterHealth = nil
}

// testProfile probes a profile with a throwaway client. The active
// connection and surface clients stay as they are.
func (m *Model) testProfile(p conn.Profile) tea.Cmd {
	sec := conn.Secrets{}
	if m.secrets != nil {
		loaded, err := m.secrets.Get(p.ID)
		if err != nil {
			m.setStatus(statusWarn, "read secrets: %v", err)
			return nil
		}
		sec = loaded
	}
	desc, err := conn.Resolve(p, sec)
	if err != nil {
		m.setStatus(statusError, "test: %v", err)
		return nil
	}
	if m.newClient == nil {
		m.setStatus(statusError, "test: no client factory configured")
		return nil
	}
	client, err := m.newClient(desc)
	if err != nil {
		m.setStatus(statusError, "test: %v", err)
		return nil
	}

	build := desc.Request
	m.setStatus(statusInfo, "Testing %s...", p.Name)
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(probeTimeout)
		defer cancel()

		resp, err := client.Send(ctx, build("GET", "/", ""))
		if err != nil {
			return profileTestMsg{name: p.Name, err: err}
		}
		if !resp.OK {
			return profileTestMsg{name: p.Name, err: engineError("cluster probe", resp.Status, resp.Body)}
		}
		var info esapi.ClusterInfo
		if err := json.Unmarshal(resp.Body, &info); err != nil {
			return profileTestMsg{name: p.Name, err: err}
		}
		return profileTestMsg{name: p.Name, info: &info}
	}
}

func (m *Model) probeClusterCmd() tea.Cmd {
	client := m.clients.cluster
	build := m.desc.Request
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(probeTimeout)
		defer cancel()

		var msg clusterInfoMsg
		resp, err := client.Send(ctx, build("GET", "/", ""))
		if err != nil {
			msg.err = err
			return msg
		}
		if resp.OK {
			var info esapi.ClusterInfo
			if err := json.Unmarshal(resp.Body, &info); err == nil {
				msg.info = &info
			}
		} else {
			msg.err = engineError("cluster probe", resp.Status, resp.Body)
			return msg
		}

		resp, err = client.Send(ctx, build("GET", query.ClusterHealth, ""))
		if err != nil {
			msg.err = err
			return msg
		}
		if resp.OK {
			var health esapi.ClusterHealth
			if err := json.Unmarshal(resp.Body, &health); err == nil {
				msg.health = &health
			}
		}
		return msg
	}
}

func (m Model) renderConnections(width, height int) string {
	if m.conns.form != nil {
		return m.renderConnForm(width, height)
	}

	body := m.conns.list.View()

	if m.conns.confirmDelete != "" {
		prompt := m.theme.Notification.Render("Delete this connection and its credentials? (y/n)")
		body = joinVertical(trimSection(body), prompt)
	}
	return body
}

func (m Model) renderConnForm(width, height int) string {
	form := m.conns.form
	var b strings.Builder

	title := "New connection"
	if form.id != "" {
		title = "Edit connection"
	}
	b.WriteString(m.theme.DetailTitle.Render(title))
	b.WriteString("\n\n")

	for i := 0; i < fieldCount; i++ {
		label := m.theme.InputLabel.Render(fmt.Sprintf("%-11s", fieldLabels[i]))
		b.WriteString(label)
		b.WriteString(" ")
		b.WriteString(form.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.InputLabel.Render("Auth       "))
	b.WriteString(" ")
	b.WriteString(m.theme.StatusBarValue.Render(string(form.authType)))
	b.WriteString(m.theme.StatusBar.Render("  (ctrl+a cycles)"))
	b.WriteString("\n")
	b.WriteString(m.theme.InputLabel.Render("Verify TLS "))
	b.WriteString(" ")
	b.WriteString(m.theme.StatusBarValue.Render(fmt.Sprintf("%t", form.verifyTLS)))
	b.WriteString(m.theme.StatusBar.Render("  (ctrl+s toggles)"))
	b.WriteString("\n")

	if form.errText != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Error.Render(form.errText))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.StatusBar.Render("enter save · esc cancel · tab next field"))
	return b.String()
}
