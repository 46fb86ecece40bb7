// Package render turns assembled message snapshots into styled console
// output for the replay command. It is a diagnostic printer, not the
// product UI: it only reads snapshots.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/opspilot/agui/pkg/message"
)

// Renderer formats message snapshots for the terminal
type Renderer struct {
	showThinking bool

	chromaFormatter chroma.Formatter

	statusStyles  map[message.Status]lipgloss.Style
	thinkingStyle lipgloss.Style
	componentTag  lipgloss.Style
	toolHeader    lipgloss.Style
	toolMeta      lipgloss.Style
	errorStyle    lipgloss.Style
}

// New creates a renderer. When showThinking is false the private reasoning
// channel is omitted from output (it is still assembled).
func New(showThinking bool) *Renderer {
	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	badge := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("#1a1816")).
			Background(lipgloss.Color(color))
	}

	return &Renderer{
		showThinking:    showThinking,
		chromaFormatter: formatter,

		statusStyles: map[message.Status]lipgloss.Style{
			message.StatusDraft:          badge("#5c5044"),
			message.StatusThinking:       badge("#83715f"),
			message.StatusStreaming:      badge("#d3b597"),
			message.StatusSettledSuccess: badge("#98FB98"),
			message.StatusSettledEnded:   badge("#FFD700"),
			message.StatusSettledError:   badge("#d95f5f"),
		},

		// Thinking block style - subtle box with dim colors
		thinkingStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1).
			Foreground(lipgloss.Color("#888888")).
			Italic(true),

		componentTag: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB000")).
			Bold(true),

		toolHeader: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6347")).
			Bold(true),

		toolMeta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#83715f")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d95f5f")),
	}
}

// Render formats one message snapshot
func (r *Renderer) Render(m *message.Message) string {
	var out strings.Builder

	badge, ok := r.statusStyles[m.Status]
	if !ok {
		badge = lipgloss.NewStyle()
	}
	header := badge.Render(m.Status.String()) + " " + m.ID
	if m.Role != "" {
		header += " (" + m.Role + ")"
	}
	out.WriteString(header + "\n")

	if m.Error != "" {
		out.WriteString(r.errorStyle.Render("error: "+m.Error) + "\n")
	}

	if r.showThinking && m.Thinking != "" {
		out.WriteString(r.thinkingStyle.Render(m.Thinking) + "\n")
	}

	for _, part := range m.Parts {
		switch part.Kind {
		case message.PartText:
			out.WriteString(part.Text)
			if !strings.HasSuffix(part.Text, "\n") {
				out.WriteString("\n")
			}
		case message.PartComponent:
			out.WriteString(r.componentTag.Render("["+part.Name+"]") + " " + r.formatProps(part.Props) + "\n")
		case message.PartToolCallRef:
			if tc, found := m.ToolCall(part.ToolCallID); found {
				out.WriteString(r.renderToolCall(tc))
			}
		}
	}

	return out.String()
}

// renderToolCall formats one tool invocation with highlighted arguments
func (r *Renderer) renderToolCall(tc *message.ToolCall) string {
	var out strings.Builder

	out.WriteString(r.toolHeader.Render("⚙ "+tc.Name) + " " + r.toolMeta.Render("("+tc.ID+", "+tc.Status.String()+")") + "\n")
	if tc.Args != "" {
		out.WriteString(r.highlightJSON(tc.Args) + "\n")
	}
	if tc.HasResult {
		out.WriteString(r.toolMeta.Render("→ ") + r.highlightJSON(fmt.Sprintf("%v", tc.Result)) + "\n")
	}
	return out.String()
}

// formatProps renders a prop bag in stable key order
func (r *Renderer) formatProps(props map[string]any) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, props[k]))
	}
	return strings.Join(pairs, " ")
}

// highlightJSON applies syntax highlighting to a raw argument or result
// string, falling back to plain text when tokenizing fails
func (r *Renderer) highlightJSON(content string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}

	var buf strings.Builder
	if err := r.chromaFormatter.Format(&buf, styles.Get("monokai"), iterator); err != nil {
		return content
	}
	return buf.String()
}
