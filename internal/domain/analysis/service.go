package analysis

import "context"

type AnalysisService interface {
	MonthlySummary(ctx context.Context, req SummaryRequest) (MonthlySummary, error)
}
