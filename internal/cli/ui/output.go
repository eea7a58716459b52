package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/aki/kmux/internal/gateway"
	"github.com/aki/kmux/internal/session"
)

// Error prints an error message to stderr
func Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorIcon, ErrorStyle.Render(fmt.Sprintf(format, args...)))
}

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", SuccessIcon, SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

// Info prints an informational message
func Info(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", InfoIcon, InfoStyle.Render(fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", WarningIcon, WarningStyle.Render(fmt.Sprintf(format, args...)))
}

// OutputLine prints a plain line to stdout
func OutputLine(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

// FormatDuration formats a duration into a human-readable string
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "< 1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// FormatTime formats a timestamp for display
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// PrintKernelList displays running kernels using a table
func PrintKernelList(kernels []gateway.KernelModel) {
	if len(kernels) == 0 {
		Info("No running kernels found")
		return
	}

	tbl := NewTable("ID", "NAME", "STATE", "CONNECTIONS", "LAST ACTIVITY")
	for _, k := range kernels {
		state := k.ExecutionState
		switch state {
		case "busy":
			state = WarningStyle.Render(state)
		case "idle":
			state = SuccessStyle.Render(state)
		case "dead":
			state = ErrorStyle.Render(state)
		}

		lastActivity := "-"
		if !k.LastActivity.IsZero() {
			lastActivity = FormatDuration(time.Since(k.LastActivity)) + " ago"
		}

		tbl.AddRow(k.ID, k.Name, state, k.Connections, lastActivity)
	}
	tbl.Print()
}

// PrintSpecList displays available kernel specs using a table
func PrintSpecList(specs []gateway.KernelSpec, defaultName string) {
	if len(specs) == 0 {
		Info("No kernel specs available")
		return
	}

	tbl := NewTable("NAME", "DISPLAY NAME", "LANGUAGE")
	for _, s := range specs {
		name := s.Name
		if name == defaultName && defaultName != "" {
			name = name + " " + DimStyle.Render("(default)")
		}
		tbl.AddRow(name, s.DisplayName, s.Language)
	}
	tbl.Print()
}

// PrintRecordList displays local session records using a table
func PrintRecordList(records []*session.Record) {
	if len(records) == 0 {
		Info("No sessions found")
		return
	}

	tbl := NewTable("SESSION", "GATEWAY", "KERNEL", "KERNEL ID", "AGE")
	for _, r := range records {
		gw := r.Gateway
		if gw == "" {
			gw = r.BaseURL
		}
		tbl.AddRow(session.ShortID(r.ID), gw, r.KernelName, r.KernelID,
			FormatDuration(time.Since(r.StartedAt)))
	}
	tbl.Print()
}

// PrintRecord displays a single session record with formatting
func PrintRecord(r *session.Record) {
	fmt.Printf("%s %s %s\n",
		SessionIcon,
		BoldStyle.Render(session.ShortID(r.ID)),
		DimStyle.Render(fmt.Sprintf("started %s ago", FormatDuration(time.Since(r.StartedAt)))),
	)
	fmt.Printf("   %s %s\n", DimStyle.Render("Gateway:"), r.BaseURL)
	fmt.Printf("   %s %s\n", DimStyle.Render("Remote session:"), r.RemoteSessionID)
	fmt.Printf("   %s %s %s (%s)\n", KernelIcon, DimStyle.Render("Kernel:"), r.KernelName, r.KernelID)
	fmt.Printf("   %s %s\n", DimStyle.Render("Started:"), FormatTime(r.StartedAt))
}
