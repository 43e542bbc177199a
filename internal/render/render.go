// Package render styles CLI output.
package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	nameStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

// Title prints a bold section heading.
func Title(w io.Writer, text string) {
	fmt.Fprintln(w, titleStyle.Render(text))
}

// Tools prints a tool listing with names and descriptions.
func Tools(w io.Writer, tools []mcp.Tool) {
	Title(w, fmt.Sprintf("Tools (%d)", len(tools)))
	for _, tool := range tools {
		fmt.Fprintf(w, "  %s  %s\n", nameStyle.Render(tool.Name), mutedStyle.Render(tool.Description))
	}
}

// Resources prints a resource listing with URIs, names and MIME types.
func Resources(w io.Writer, resources []mcp.Resource) {
	Title(w, fmt.Sprintf("Resources (%d)", len(resources)))
	for _, resource := range resources {
		fmt.Fprintf(w, "  %s  %s %s\n",
			nameStyle.Render(resource.URI),
			resource.Name,
			mutedStyle.Render("["+resource.MIMEType+"]"),
		)
	}
}

// Pass prints a green check line.
func Pass(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", successStyle.Render("PASS"), fmt.Sprintf(format, args...))
}

// Fail prints a red failure line.
func Fail(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("FAIL"), fmt.Sprintf(format, args...))
}
