package schema

// Custom string types for type safety.
type (
	// Frequency is the calendar step tag of a dataset.
	Frequency string

	// BackendFamily is the family a model backend belongs to.
	BackendFamily string

	// SeriesStatus is the per-series outcome recorded in error metrics.
	SeriesStatus string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// ReportGrouping controls how the leaderboard aggregates summaries.
	ReportGrouping string
)

// All sampling frequencies supported.
const (
	BusinessDay  Frequency = "B"
	Day          Frequency = "D" // default
	Week         Frequency = "W"
	MonthStart   Frequency = "MS"
	MonthEnd     Frequency = "ME"
	QuarterStart Frequency = "QS"
	QuarterEnd   Frequency = "QE"
	YearStart    Frequency = "YS"
	YearEnd      Frequency = "YE"
)

// All backend families supported.
const (
	LocalStatistical BackendFamily = "local-statistical"
	GlobalNeural     BackendFamily = "global-neural"
	PanelStatistical BackendFamily = "panel-statistical"
)

// All series statuses. Everything other than StatusOK carries a NaN MASE.
const (
	StatusOK                  SeriesStatus = "ok"
	StatusInsufficientHistory SeriesStatus = "insufficient-history"
	StatusAllNaN              SeriesStatus = "all-nan"
	StatusForecastFailed      SeriesStatus = "forecast-failed"
	StatusForecastMissing     SeriesStatus = "forecast-missing"
	StatusForecastInvalid     SeriesStatus = "forecast-invalid"
	StatusScaleDegenerate     SeriesStatus = "scale-degenerate"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	XLSXOut    OutputMode = "xlsx"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All leaderboard groupings supported.
const (
	GroupByRun   ReportGrouping = "run" // default
	GroupByModel ReportGrouping = "model"
)

// Defaults applied when a dataset has no catalog entry.
const (
	DefaultFrequency         = Day
	DefaultSeasonality       = 7
	DefaultTestSplit         = 0.2
	DefaultContextMultiplier = 4
	DefaultEpochs            = 20
)

// SeasonalSplit is the sentinel test split that holds out one season per series.
const SeasonalSplit = "seasonal"

// AllFrequencies lists every frequency in declaration order.
var AllFrequencies = []Frequency{BusinessDay, Day, Week, MonthStart, MonthEnd, QuarterStart, QuarterEnd, YearStart, YearEnd}

// ValidFrequencies lists all valid frequencies.
var ValidFrequencies = map[Frequency]struct{}{
	BusinessDay:  {},
	Day:          {},
	Week:         {},
	MonthStart:   {},
	MonthEnd:     {},
	QuarterStart: {},
	QuarterEnd:   {},
	YearStart:    {},
	YearEnd:      {},
}

// ValidBackendFamilies lists all valid backend families.
var ValidBackendFamilies = map[BackendFamily]struct{}{
	LocalStatistical: {},
	GlobalNeural:     {},
	PanelStatistical: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	XLSXOut:    {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidReportGroupings lists all valid leaderboard groupings.
var ValidReportGroupings = map[ReportGrouping]struct{}{
	GroupByRun:   {},
	GroupByModel: {},
}
