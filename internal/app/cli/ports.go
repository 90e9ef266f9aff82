package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"devboot/internal/app/platform"
	"devboot/internal/app/readiness"
)

const healthService = "health"

// portRow is one line of the ports table
type portRow struct {
	Service   string
	Kind      string
	Port      int
	Available bool
	Owner     *platform.ProcessRef
}

// handlePorts prints availability of the well-known, required and health check ports
func (c *cli) handlePorts() (int, error) {
	rows := c.collectPorts()

	c.log.Debug().Msgf("Inspected %d ports", len(rows))
	fmt.Fprintln(c.out, renderPorts(rows))

	return ExitOK, nil
}

func (c *cli) collectPorts() []portRow {
	snapshot := c.ports.HealthSnapshot()
	seen := make(map[int]bool)
	rows := make([]portRow, 0, len(snapshot))

	for _, service := range c.cfg.WellKnownServices() {
		health, ok := snapshot[service]
		if !ok {
			continue
		}

		seen[health.Port] = true
		rows = append(rows, portRow{Service: service, Kind: "well-known", Port: health.Port, Available: health.Available, Owner: health.Owner})
	}

	for _, service := range c.cfg.RequiredServices() {
		port := c.cfg.Ports.Required[service]
		if seen[port] {
			continue
		}

		seen[port] = true
		rows = append(rows, portRow{Service: service, Kind: "required", Port: port, Available: c.ports.IsAvailable(port)})
	}

	if port := readiness.PortFromURL(c.cfg.Services.HealthURL); port > 0 && !seen[port] {
		rows = append(rows, portRow{Service: healthService, Kind: "health", Port: port, Available: c.ports.IsAvailable(port)})
	}

	return rows
}

// renderPorts renders the rows as a bordered table
func renderPorts(rows []portRow) string {
	if len(rows) == 0 {
		return mutedText.Render("No ports configured")
	}

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		status := "free"
		if !r.Available {
			status = "in use"
		}

		owner := "-"
		if r.Owner != nil {
			owner = strconv.Itoa(r.Owner.PID)
			if r.Owner.Name != "" {
				owner += " (" + r.Owner.Name + ")"
			}
		}

		data = append(data, []string{r.Service, r.Kind, strconv.Itoa(r.Port), status, owner})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers("SERVICE", "KIND", "PORT", "STATUS", "OWNER").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}

			if col == 3 && row >= 0 && row < len(data) {
				if data[row][col] == "free" {
					return tableCell.Foreground(successText.GetForeground())
				}

				return tableCell.Foreground(errorText.GetForeground())
			}

			return tableCell
		})

	return t.String()
}
