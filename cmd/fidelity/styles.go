// cmd/fidelity/styles.go
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fidelity-driver/internal/discovery"
	"fidelity-driver/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	cellStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

const notRead = "not read"

// renderStatus renders an instrument status block
func renderStatus(status model.InstrumentStatus) string {
	state := missingStyle.Render(string(status.State))
	if status.IsConnected() {
		state = okStyle.Render(string(status.State))
	}

	port := status.Port
	if port == "" {
		port = "none"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Fidelity") + "\n")
	writeField(&b, "Port", port)
	writeField(&b, "State", state)
	writeOptional(&b, "Version", status.Version, trimResponse)
	writeOptional(&b, "GDD", status.Dispersion, formatFloat)
	writeOptional(&b, "Power", status.Power, strconv.Itoa)
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label) + value + "\n")
}

func writeOptional[T any](b *strings.Builder, label string, value *T, format func(T) string) {
	if value == nil {
		writeField(b, label, missingStyle.Render(notRead))
		return
	}
	writeField(b, label, format(*value))
}

// renderReading renders a single labelled value, or a marker when nothing was read
func renderReading(label, value string, ok bool) string {
	if !ok {
		return labelStyle.Render(label) + missingStyle.Render(notRead)
	}
	return labelStyle.Render(label) + value
}

// renderSent confirms a command that has no response
func renderSent(command string) string {
	return okStyle.Render("sent") + " " + command
}

// renderPortsTable renders the detailed port list in a styled static table format
func renderPortsTable(ports []discovery.PortDetails) string {
	if len(ports) == 0 {
		return "No serial ports found\n"
	}

	// Define column widths
	portWidth := 15
	usbWidth := 11
	serialWidth := 16
	productWidth := 30

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d serial port(s):\n\n", len(ports))

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s",
		portWidth, "Port",
		usbWidth, "USB ID",
		serialWidth, "Serial",
		productWidth, "Product")
	b.WriteString(headerStyle.Render(header) + "\n")

	for _, p := range ports {
		usbID := p.USBID()
		if usbID == "" {
			usbID = "-"
		}
		row := fmt.Sprintf("%-*s %-*s %-*s %-*s",
			portWidth, p.Name,
			usbWidth, usbID,
			serialWidth, orDash(p.SerialNumber),
			productWidth, orDash(p.Product))
		b.WriteString(cellStyle.Render(row) + "\n")
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// trimResponse drops the line terminators the instrument appends
func trimResponse(s string) string {
	return strings.TrimRight(s, "\r\n")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
