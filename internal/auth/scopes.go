package auth

// Known OAuth scopes used by the analysis service.
const (
	ScopeAnalysesRun    = "analyses:run"
	ScopeAssessmentsRun = "assessments:run"
)
