package harvest

// JobOutcome is the result of executing one job.
// Skipped implies Success.
type JobOutcome struct {
	Job

	Success bool
	Skipped bool

	// Error and Code describe a failed job.
	Error string
	Code  string

	ArtifactPath  string
	ContentLength int

	// Bytes is the size of the primary artifact written by this job.
	Bytes  int
	Tokens int

	// Warning reports a non-fatal problem, such as a failed raw artifact write.
	Warning string
}

// New reports whether the job produced a new artifact.
func (o JobOutcome) New() bool {
	return o.Success && !o.Skipped
}

// RunStatistics aggregates job outcomes. Per-category statistics use the
// same type.
type RunStatistics struct {
	Total      int
	Successful int
	Failed     int
	Skipped    int
	New        int
}

// Add counts a single outcome.
func (s *RunStatistics) Add(o JobOutcome) {
	s.Total++
	if !o.Success {
		s.Failed++
		return
	}
	s.Successful++
	if o.Skipped {
		s.Skipped++
	} else {
		s.New++
	}
}

// Merge adds other into s.
func (s *RunStatistics) Merge(other RunStatistics) {
	s.Total += other.Total
	s.Successful += other.Successful
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.New += other.New
}

// SuccessRate returns the percentage of successful jobs, or 0 when no job ran.
func (s RunStatistics) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total) * 100
}

// Tally builds statistics from a list of outcomes.
func Tally(outcomes []JobOutcome) RunStatistics {
	var s RunStatistics
	for _, o := range outcomes {
		s.Add(o)
	}
	return s
}
