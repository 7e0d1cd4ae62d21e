package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tendant/kcbootstrap/pkg/config"
)

// PrintReport writes a human readable summary of a finished run.
func PrintReport(w io.Writer, cfg config.Config, report *Report) {
	if report == nil {
		return
	}

	title := "IDENTITY PROVIDER BOOTSTRAP COMPLETED"
	if !report.Success {
		title = "IDENTITY PROVIDER BOOTSTRAP FAILED"
	}
	printSectionHeader(w, title)

	printConfigSection(w, cfg)
	printStagesSection(w, report)
	if report.Success {
		printUsersSection(w, report.Users)
		printLoginSection(w, cfg)
	}
	printProductionWarnings(w, cfg.ProductionWarnings())

	printSectionFooter(w)
}

// PrintSyncResult writes the outcome of a user sync.
func PrintSyncResult(w io.Writer, result *UsersResult) {
	if result == nil {
		return
	}
	printSectionHeader(w, "USER SYNC")
	printUserRows(w, result.Users)
	fmt.Fprintf(w, "\n  Synced %d/%d users\n", result.Succeeded, result.Attempted)
	printSectionFooter(w)
}

func printSectionHeader(w io.Writer, title string) {
	border := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\n", border)
	fmt.Fprintf(w, "🚀 %s\n", title)
	fmt.Fprintf(w, "%s\n", border)
}

func printSectionFooter(w io.Writer) {
	border := strings.Repeat("=", 80)
	fmt.Fprintf(w, "%s\n\n", border)
}

func printConfigSection(w io.Writer, cfg config.Config) {
	fmt.Fprintln(w, "\n📋 Configuration:")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "  Environment:    %s\n", cfg.Env())
	fmt.Fprintf(w, "  Keycloak URL:   %s\n", cfg.BaseURL)
	fmt.Fprintf(w, "  Realm:          %s\n", cfg.Realm)
	fmt.Fprintf(w, "  Client ID:      %s\n", cfg.ClientID)
	fmt.Fprintf(w, "  Redirect URIs:  %s\n", strings.Join(cfg.RedirectURIList(), ", "))
	fmt.Fprintf(w, "  Web Origins:    %s\n", strings.Join(cfg.WebOriginList(), ", "))
}

func printStagesSection(w io.Writer, report *Report) {
	fmt.Fprintln(w, "\n🔧 Stages:")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, o := range report.Outcomes {
		mark := "✓"
		if !o.Success {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %-13s %-10s %s\n", mark, o.Stage, o.Action, o.Detail)
	}
	fmt.Fprintf(w, "\n  Final state: %s\n", report.State)
}

func printUsersSection(w io.Writer, users UsersResult) {
	fmt.Fprintf(w, "\n👤 Users (source: %s):\n", users.Source)
	fmt.Fprintln(w, strings.Repeat("-", 80))
	printUserRows(w, users.Users)
	if users.Admin != nil {
		printUserRows(w, []UserResult{*users.Admin})
	}
	ok, total := users.Total()
	fmt.Fprintf(w, "\n  Ensured %d/%d users\n", ok, total)
}

func printUserRows(w io.Writer, users []UserResult) {
	for _, u := range users {
		status := "✓ Already existed"
		switch {
		case !u.OK():
			status = "✗ Failed"
		case u.Created:
			status = "✨ Created"
		}
		fmt.Fprintf(w, "  %-24s %s\n", u.Username, status)
	}
}

func printLoginSection(w io.Writer, cfg config.Config) {
	fmt.Fprintln(w, "\n🔑 Admin Login:")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "  Username:  %s\n", AdminUsername)
	if cfg.DefaultUserPassword == config.DefaultPassword {
		fmt.Fprintf(w, "  Password:  %s\n", cfg.DefaultUserPassword)
	} else {
		fmt.Fprintln(w, "  Password:  (configured via KEYCLOAK_DEFAULT_PASSWORD environment variable)")
	}
}

func printProductionWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, "\n⚠️  PRODUCTION WARNINGS:")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, warning := range warnings {
		fmt.Fprintf(w, "  • %s\n", warning)
	}
}

// LogReportSummary logs a concise summary without secrets.
func LogReportSummary(report *Report) {
	if report == nil {
		return
	}
	ok, total := report.Users.Total()
	slog.Info("Bootstrap summary",
		"run_id", report.RunID,
		"success", report.Success,
		"state", report.State.String(),
		"user_source", report.Users.Source,
		"users_ensured", ok,
		"users_attempted", total,
		"verified", report.Discovery != nil,
		"duration", report.Duration,
	)
}

// LogProductionWarnings emits one warning per insecure default.
func LogProductionWarnings(cfg config.Config) {
	for _, warning := range cfg.ProductionWarnings() {
		slog.Warn(warning, "environment", cfg.Environment)
	}
}
