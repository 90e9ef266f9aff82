package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"devboot/internal/app/monitor"
	"devboot/internal/app/orchestrator"
	"devboot/internal/app/report"
)

// handleRun executes every bootstrap phase and keeps the environment up until interrupted
func (c *cli) handleRun() (int, error) {
	ctx, stop := c.signalContext(context.Background())
	defer stop()

	c.log.Info().Msgf("Bootstrapping %s", c.cfg.Resolve("."))

	result := c.orchestrator.Run(ctx, orchestrator.Options{
		SkipInstall: c.options.SkipInstall,
		NoMonitor:   c.options.NoMonitor,
	})

	fmt.Fprint(c.out, renderResult(result, terminalWidth()))

	code := exitCode(result)
	if code == ExitOK && (result.Monitoring || result.Service != nil) {
		fmt.Fprintln(c.out, helpText.Render("Environment is up, press Ctrl+C to stop"))
		<-ctx.Done()
		c.log.Info().Msg("Shutting down")
	}

	c.shutdown(result)

	return code, result.Err
}

// shutdown stops the self-check loop and every process the run left behind
func (c *cli) shutdown(result *orchestrator.Result) {
	if result.Monitoring {
		c.printSnapshot(c.monitor.Snapshot())
		c.monitor.Stop()
	}

	c.runner.Close()
}

func (c *cli) printSnapshot(snap monitor.Snapshot) {
	if snap.Time.IsZero() {
		return
	}

	fmt.Fprintln(c.out, mutedText.Render(fmt.Sprintf(
		"Last self-check %s: memory %s/%s (%.1f%%), cpu %.1f%%, %d alerts",
		snap.Time.Format("15:04:05"),
		monitor.FormatMemory(snap.Host.MemoryUsed), monitor.FormatMemory(snap.Host.MemoryTotal),
		snap.Host.MemoryPercent, snap.Host.CPUPercent, len(snap.Alerts),
	)))

	for _, p := range snap.Processes {
		fmt.Fprintln(c.out, mutedText.Render(fmt.Sprintf("  PID %d up %s: %s", p.PID, monitor.FormatUptime(p.Uptime), p.Command)))
	}
}

// exitCode maps a run result to the process exit code
func exitCode(result *orchestrator.Result) int {
	switch {
	case result.Interrupted():
		return ExitInterrupted
	case result.Succeeded():
		return ExitOK
	default:
		return ExitFailure
	}
}

// renderResult renders the outcome line followed by the report
func renderResult(result *orchestrator.Result, width int) string {
	var status string

	switch {
	case result.Interrupted():
		status = warningText.Render(fmt.Sprintf("Interrupted during %s", result.Report.FinalPhase))
	case result.Succeeded():
		status = successText.Render("Environment ready")
	case result.Phase == orchestrator.Aborted && result.Report.FailedPhase != "":
		status = errorText.Render(fmt.Sprintf("Run aborted during %s", result.Report.FailedPhase))
	case result.Phase == orchestrator.Aborted:
		status = errorText.Render("Run aborted")
	default:
		status = warningText.Render("Completed with errors")
	}

	var b strings.Builder

	b.WriteString(status + "\n")

	if result.Err != nil && !result.Interrupted() {
		b.WriteString(clip(errorText.Render("Error: ")+result.Err.Error(), width) + "\n")
	}

	b.WriteString(renderReport(result.Report, result.ReportPath, width))

	return b.String()
}

// renderReport renders ports, errors, warnings and fixes of a report plus its summary line
func renderReport(rep report.DiagnosticReport, path string, width int) string {
	var b strings.Builder

	if len(rep.Ports) > 0 {
		b.WriteString(sectionHeader.Render("Ports") + "\n")

		services := make([]string, 0, len(rep.Ports))
		for service := range rep.Ports {
			services = append(services, service)
		}

		sort.Strings(services)

		for _, service := range services {
			b.WriteString(fmt.Sprintf("  %s %d\n", commandName.Render(fmt.Sprintf("%-12s", service)), rep.Ports[service]))
		}
	}

	if len(rep.Errors) > 0 {
		b.WriteString(sectionHeader.Render("Errors") + "\n")

		for _, e := range rep.Errors {
			line := fmt.Sprintf("  %s %s %s", errorText.Render(e.Code.String()), mutedText.Render("("+e.Severity.String()+")"), e.Message)
			b.WriteString(clip(line, width) + "\n")
		}
	}

	if len(rep.Warnings) > 0 {
		b.WriteString(sectionHeader.Render("Warnings") + "\n")

		for _, w := range rep.Warnings {
			where := w.Phase
			if w.Check != "" {
				where += "/" + w.Check
			}

			line := fmt.Sprintf("  %s %s", warningText.Render(where), w.Message)
			b.WriteString(clip(line, width) + "\n")
		}
	}

	if len(rep.FixesApplied) > 0 {
		b.WriteString(sectionHeader.Render("Fixes applied") + "\n")

		for _, fix := range rep.FixesApplied {
			b.WriteString(clip("  "+fix, width) + "\n")
		}
	}

	summary := lipgloss.JoinHorizontal(lipgloss.Top,
		bodyMedium.Render(report.Summarize(rep).String()),
		mutedText.Render(fmt.Sprintf(" [%s, %s, %dms]", rep.Status, rep.FinalPhase, rep.DurationMs)),
	)

	b.WriteString(helpText.Render(summary) + "\n")

	if path != "" {
		b.WriteString(mutedText.Render("Report: "+path) + "\n")
	}

	return b.String()
}
