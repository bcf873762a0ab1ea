package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"roster/internal/adapters/email"
	"roster/internal/application/projections"
	"roster/internal/application/report"
	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	"roster/internal/domain/shared"
	"roster/internal/domain/stats"
)

// ReportRecorder receives report delivery outcomes (metrics).
type ReportRecorder interface {
	ReportSent(cohortID string, err error)
}

// SendMonthlyReportInput carries input for the report orchestrator.
type SendMonthlyReportInput struct {
	CohortID string
	Month    time.Time // any day of the month; zero means the previous month
	Today    time.Time
}

// SendMonthlyReportDeps holds dependencies for SendMonthlyReport.
type SendMonthlyReportDeps struct {
	Registry        *cohort.Registry
	MemberStore     projections.MemberStore
	AttendanceStore projections.AttendanceStore
	Sender          email.Sender
	Recorder        ReportRecorder // optional
}

// SendMonthlyReportResult carries the delivery outcome.
type SendMonthlyReportResult struct {
	Receipt    email.Receipt
	Recipients []string
	Markdown   string
}

// ExecuteSendMonthlyReport builds a cohort's monthly report and emails it to
// the cohort's configured recipients.
// PRE: the cohort has at least one report recipient
// POST: the report was accepted by the sender, or an error is returned
func ExecuteSendMonthlyReport(ctx context.Context, input SendMonthlyReportInput, deps SendMonthlyReportDeps) (SendMonthlyReportResult, error) {
	p, err := deps.Registry.Get(input.CohortID)
	if err != nil {
		return SendMonthlyReportResult{}, err
	}
	if len(p.ReportRecipients) == 0 {
		return SendMonthlyReportResult{}, shared.Misconfigured("report", "SendMonthly", "cohort %s has no report recipients", p.ID)
	}

	md, err := BuildMonthlyReport(ctx, input, MonthlyReportDeps{
		Registry:        deps.Registry,
		MemberStore:     deps.MemberStore,
		AttendanceStore: deps.AttendanceStore,
	})
	if err != nil {
		return SendMonthlyReportResult{}, err
	}
	html, err := report.RenderHTML(md.Markdown)
	if err != nil {
		return SendMonthlyReportResult{}, err
	}

	receipt, err := deps.Sender.Send(ctx, email.Message{
		To:      p.ReportRecipients,
		Subject: md.Subject,
		HTML:    html,
		Text:    md.Markdown,
	})
	if deps.Recorder != nil {
		deps.Recorder.ReportSent(p.ID, err)
	}
	if err != nil {
		return SendMonthlyReportResult{}, err
	}
	slog.Info("report_event", "event", "monthly_report_sent", "cohort_id", p.ID, "month", md.Month.Format(dates.MonthLayout), "recipients", len(p.ReportRecipients), "message_id", receipt.MessageID)
	return SendMonthlyReportResult{Receipt: receipt, Recipients: p.ReportRecipients, Markdown: md.Markdown}, nil
}

// MonthlyReportDeps holds dependencies for BuildMonthlyReport.
type MonthlyReportDeps struct {
	Registry        *cohort.Registry
	MemberStore     projections.MemberStore
	AttendanceStore projections.AttendanceStore
}

// MonthlyReport is a built, not yet delivered, report.
type MonthlyReport struct {
	Month    time.Time
	Subject  string
	Markdown string
}

// BuildMonthlyReport gathers statistics, daily counts and candidates for a
// cohort's month and renders the Markdown report.
// POST: exactly one bulk ledger read for the roster
func BuildMonthlyReport(ctx context.Context, input SendMonthlyReportInput, deps MonthlyReportDeps) (MonthlyReport, error) {
	today := input.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = dates.Civil(today)
	month := input.Month
	if month.IsZero() {
		month = dates.MonthStart(today).AddDate(0, -1, 0)
	}
	month = dates.MonthStart(month)

	roster, err := projections.QueryGetCohortRoster(ctx, projections.GetCohortRosterQuery{CohortID: input.CohortID, Today: today}, projections.GetCohortRosterDeps{
		Registry:    deps.Registry,
		MemberStore: deps.MemberStore,
	})
	if err != nil {
		return MonthlyReport{}, err
	}
	candidates, err := projections.QueryGetTransitionCandidates(ctx, projections.GetTransitionCandidatesQuery{CohortID: input.CohortID, Today: today}, projections.GetTransitionCandidatesDeps{
		Registry:    deps.Registry,
		MemberStore: deps.MemberStore,
	})
	if err != nil {
		return MonthlyReport{}, err
	}

	in := report.MonthlyInput{
		Cohort:      roster.Cohort,
		Month:       month,
		Candidates:  candidates.Candidates,
		GeneratedAt: today,
	}
	if len(roster.Members) > 0 {
		records, err := deps.AttendanceStore.ListByMemberIDs(ctx, roster.MemberIDs())
		if err != nil {
			return MonthlyReport{}, err
		}
		in.Days = stats.DailyCounts(records)
		in.Summary = stats.Summarize(records, len(roster.Members), today, month)
	} else {
		in.Summary = stats.Summarize(nil, 0, today, month)
	}

	return MonthlyReport{
		Month:    month,
		Subject:  report.Subject(in),
		Markdown: report.BuildMonthly(in),
	}, nil
}
