package operations

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Report records one execution: a pipeline step or a whole run.
type Report struct {
	ID  string     `json:"id"`
	Def Definition `json:"definition"`
	// RunID identifies the pipeline run the execution belongs to.
	RunID string `json:"runId,omitempty"`
	// Inputs maps the names the execution read to the memory names they resolved to.
	Inputs map[string]string `json:"inputs,omitempty"`
	// Result is the memory name the output was stored under.
	Result string `json:"result,omitempty"`
	// OutputType is the content type of the produced value.
	OutputType string        `json:"outputType,omitempty"`
	Timestamp  *time.Time    `json:"timestamp"`
	Duration   time.Duration `json:"duration"`
	Err        *ReportError  `json:"error"`
	DryRun     bool          `json:"dryRun,omitempty"`
	// stores a list of report IDs for the steps executed as part of a run.
	ChildReports []string `json:"childReports"`
}

// NewReport creates a new report.
// childReportIDs is applicable only for runs.
func NewReport(def Definition, started time.Time, err error, childReportIDs ...string) Report {
	r := Report{
		ID:           uuid.New().String(),
		Def:          def,
		Timestamp:    &started,
		Duration:     time.Since(started),
		ChildReports: childReportIDs,
	}
	if err != nil {
		r.Err = &ReportError{Message: err.Error()}
	}

	return r
}

// ReportError represents an error in the Report.
// Its purpose is to have an exported field `Message` for marshalling as the
// native error cant be marshaled to JSON.
type ReportError struct {
	Message string `json:"message"`
}

// Error implements the error interface.
func (o ReportError) Error() string {
	return o.Message
}

var ErrReportNotFound = errors.New("report not found")

// Reporter manages reports.
type Reporter interface {
	GetReport(id string) (Report, error)
	GetReports() ([]Report, error)
	AddReport(report Report) error
	GetExecutionReports(reportID string) ([]Report, error)
}

// MemoryReporter stores reports in memory.
// This is thread-safe and can be used in a multi-threaded environment.
type MemoryReporter struct {
	reports []Report
	mu      sync.RWMutex
}

type MemoryReporterOption func(*MemoryReporter)

// WithReports is an option to initialize the MemoryReporter with a list of reports.
func WithReports(reports []Report) MemoryReporterOption {
	return func(mr *MemoryReporter) {
		mr.reports = reports
	}
}

// NewMemoryReporter creates a new MemoryReporter.
func NewMemoryReporter(options ...MemoryReporterOption) *MemoryReporter {
	reporter := &MemoryReporter{}
	for _, opt := range options {
		opt(reporter)
	}

	return reporter
}

// AddReport adds a report to the memory reporter.
func (e *MemoryReporter) AddReport(report Report) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reports = append(e.reports, report)

	return nil
}

// GetReports returns a copy of all reports.
func (e *MemoryReporter) GetReports() ([]Report, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	reports := make([]Report, len(e.reports))
	copy(reports, e.reports)

	return reports, nil
}

// GetReport returns a report by ID.
// Returns ErrReportNotFound if the report is not found.
func (e *MemoryReporter) GetReport(id string) (Report, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.find(id)
}

// GetExecutionReports returns the reports of every step executed as part of a run, followed by
// the run report itself.
func (e *MemoryReporter) GetExecutionReports(runReportID string) ([]Report, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var all []Report

	var collect func(id string) error
	collect = func(id string) error {
		report, err := e.find(id)
		if err != nil {
			return err
		}
		for _, childID := range report.ChildReports {
			if err := collect(childID); err != nil {
				return err
			}
		}
		all = append(all, report)

		return nil
	}

	if err := collect(runReportID); err != nil {
		return nil, err
	}

	return all, nil
}

func (e *MemoryReporter) find(id string) (Report, error) {
	for _, report := range e.reports {
		if report.ID == id {
			return report, nil
		}
	}

	return Report{}, fmt.Errorf("report_id %s: %w", id, ErrReportNotFound)
}

// RecentReporter is a wrapper around a Reporter that keeps track of the reports added through it.
// A run uses one to collect the ids of its step reports.
type RecentReporter struct {
	Reporter
	recentReports []Report
	mu            sync.RWMutex
}

// AddReport adds a report to the underlying reporter and remembers it.
func (e *RecentReporter) AddReport(report Report) error {
	if err := e.Reporter.AddReport(report); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.recentReports = append(e.recentReports, report)

	return nil
}

// GetRecentReports returns all the reports added since the construction of the RecentReporter.
func (e *RecentReporter) GetRecentReports() []Report {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Report, len(e.recentReports))
	copy(out, e.recentReports)

	return out
}

// NewRecentMemoryReporter creates a new RecentReporter.
func NewRecentMemoryReporter(reporter Reporter) *RecentReporter {
	return &RecentReporter{
		Reporter:      reporter,
		recentReports: []Report{},
	}
}

// WithReporter returns a copy of the bundle that records reports to reporter.
func (b Bundle) WithReporter(reporter Reporter) Bundle {
	b.reporter = reporter

	return b
}
