package investGameService

import (
	"context"
	"log/slog"

	"github.com/investgame/investgame/utils"
)

// BuildTransactionsReport renders the full transaction log as an xlsx
// workbook for the admin surface.
func (s *InvestGameService) BuildTransactionsReport(ctx context.Context) (report []byte, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "InvestGameService.BuildTransactionsReport"

	slog.Debug("BuildTransactionsReport start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		if err != nil {
			slog.Error("BuildTransactionsReport failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("BuildTransactionsReport finished", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	transactions, err := s.repo.GetAllTransactions(ctx)
	if err != nil {
		return nil, err
	}

	return s.reportGenerator.TransactionsReport(transactions)
}
