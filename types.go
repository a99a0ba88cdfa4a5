package deckgen

// ReferenceImage is one candidate visual anchor for a generation request.
// Missing or undecodable files are dropped at sheet-build time, not fatal;
// Result.DroppedReferences reports how many were skipped.
type ReferenceImage struct {
	Path  string
	Label string
}

// GenerationRequest describes a single slide to produce. It is not mutated by
// the pipeline; budgets of zero fall back to package defaults.
type GenerationRequest struct {
	Prompt      string
	StylePrefix string
	References  []ReferenceImage

	// QualityCheck enables the judge/refine loop after the first success.
	QualityCheck bool

	// Retries bounds generation attempts (default 3). MaxRefine bounds
	// quality-gate rounds (default 2).
	Retries   int
	MaxRefine int

	OutputPath string

	// NormalizeMaxSize, when positive, re-encodes the downloaded artifact as
	// PNG with its longest side capped at this value before writing. Zero
	// writes the raw downloaded bytes.
	NormalizeMaxSize int
}

// AttemptOutcome classifies how one generation attempt ended.
type AttemptOutcome string

const (
	OutcomeSuccess      AttemptOutcome = "success"
	OutcomeHTTPError    AttemptOutcome = "http_error"
	OutcomeTimeout      AttemptOutcome = "timeout"
	OutcomeParseMiss    AttemptOutcome = "parse_miss"
	OutcomeDownloadFail AttemptOutcome = "download_fail"
)

// GenerationAttempt records one pass through the send/parse/download pipeline.
type GenerationAttempt struct {
	Index   int
	Outcome AttemptOutcome
	Locator string
	Bytes   int
}

// QualityVerdict is the judge's answer for a produced artifact. Reason is
// only meaningful when Passed is false.
type QualityVerdict struct {
	Passed bool
	Reason string
}

// Result is the complete outcome of a generation call. The pipeline never
// panics or returns a raw error to the caller: every failure class folds into
// OK=false with Err describing the terminal condition.
type Result struct {
	OK      bool
	Skipped bool

	OutputPath        string
	Attempts          []GenerationAttempt
	RefineRounds      int
	DroppedReferences int

	Err error
}
