package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"

	"golang.org/x/text/language"
)

type ReportOutcome struct {
	Report domain.Report
	Err    error
}

func (o ReportOutcome) OK() bool { return o.Err == nil }

var (
	supportedLocales = []language.Tag{
		language.Russian,
		language.AmericanEnglish,
		language.BritishEnglish,
		language.German,
	}
	localeLayouts = []string{
		"02.01.2006, 15:04:05",
		"1/2/2006, 3:04:05 PM",
		"02/01/2006, 15:04:05",
		"2.1.2006, 15:04:05",
	}
	localeMatcher = language.NewMatcher(supportedLocales)
)

// DateFormatter renders timestamps the way the given locale shows a date-time.
type DateFormatter struct {
	Tag    language.Tag
	layout string
	loc    *time.Location
}

// NewDateFormatter picks the closest supported locale. Unknown or malformed
// locales get the first supported one. A nil loc means time.Local.
func NewDateFormatter(locale string, loc *time.Location) DateFormatter {
	if loc == nil {
		loc = time.Local
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = supportedLocales[0]
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		idx = 0
	}
	return DateFormatter{Tag: supportedLocales[idx], layout: localeLayouts[idx], loc: loc}
}

func (f DateFormatter) Format(t time.Time) string {
	return t.In(f.loc).Format(f.layout)
}

// FormatFuel renders liters with exactly three decimals.
func FormatFuel(liters float64) string {
	return strconv.FormatFloat(liters, 'f', 3, 64)
}

// ReportAggregator fetches the trip history from the backend and renders it.
type ReportAggregator struct {
	backend ports.TripBackend
	dates   DateFormatter
	timeout time.Duration
	logger  *slog.Logger
}

func NewReportAggregator(backend ports.TripBackend, dates DateFormatter, timeout time.Duration, logger *slog.Logger) *ReportAggregator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportAggregator{
		backend: backend,
		dates:   dates,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "report")),
	}
}

func (a *ReportAggregator) Fetch(ctx context.Context) ReportOutcome {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	report, err := a.backend.ListTrips(ctx)
	if err != nil {
		return ReportOutcome{Err: classify(ctx, domain.SideBackend, "list trips", err)}
	}
	return ReportOutcome{Report: report}
}

// Entries numbers the records 1..N in the order received.
func (a *ReportAggregator) Entries(report domain.Report) []ports.ReportEntry {
	entries := make([]ports.ReportEntry, 0, len(report))
	for i, rec := range report {
		entries = append(entries, ports.ReportEntry{
			Ordinal:       i + 1,
			Distance:      rec.Distance,
			TransportMode: rec.TransportMode,
			FuelUsed:      FormatFuel(rec.FuelUsed),
			CreatedAt:     a.dates.Format(rec.CreatedAt),
			Raw:           rec.CreatedAt,
		})
	}
	return entries
}

// Render replaces whatever view shows with report.
func (a *ReportAggregator) Render(report domain.Report, view ports.ReportView) {
	view.Clear()
	for _, e := range a.Entries(report) {
		view.Append(e)
	}
}

// Show fetches and renders in one call.
func (a *ReportAggregator) Show(ctx context.Context, view ports.ReportView) ReportOutcome {
	out := a.Fetch(ctx)
	a.Apply(ctx, out, view)
	return out
}

// Apply renders a fetched outcome. On failure the view keeps its old content
// and gets the error message.
func (a *ReportAggregator) Apply(ctx context.Context, out ReportOutcome, view ports.ReportView) {
	if !out.OK() {
		a.logger.WarnContext(ctx, "report fetch failed", slog.Any("error", out.Err))
		view.ShowError(UserMessage(out.Err))
		return
	}
	a.Render(out.Report, view)
}
