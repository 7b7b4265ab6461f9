package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"budget/internal/chart"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

const (
	chartCategories = "categories"
	chartTotals     = "totals"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string][]string{
		"categories": core.Categories,
		"months":     core.MonthLabels(),
	}).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	sel, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		InputError(err).Write(w)
		return
	}
	records := s.ledger.Records(r.Context(), sel)
	NewJSONResponse().Body(map[string]any{
		"month":        sel.String(),
		"transactions": toRecordsJSON(records),
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Invalid request body", log.FieldError, err)
		BadRequestError(err.Error()).Write(w)
		return
	}

	rec, err := s.ledger.Add(ctx, p.Candidate())
	if err != nil {
		logger.InfoContext(ctx, "Transaction rejected",
			log.NewFields().WithOperation(log.OpAdd).WithError(err).ToSlice()...)
		InputError(err).Write(w)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Body(toRecordJSON(rec)).Write(w)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	s.ledger.Clear(r.Context())
	s.charts.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sel, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		InputError(err).Write(w)
		return
	}
	NewJSONResponse().Body(toSummaryJSON(s.ledger.Summary(r.Context(), sel))).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := s.ledger.Export(r.Context(), w); err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "CSV export failed", err, log.OpExport, nil)
	}
}

// handleImportCSV accepts a raw CSV body or a multipart upload in field "file".
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var src io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			if isBodyTooLarge(err) {
				ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
				return
			}
			BadRequestError("missing multipart field \"file\"").Write(w)
			return
		}
		defer file.Close()
		src = file
	}

	n, err := s.ledger.Import(ctx, src)
	if err != nil {
		if isBodyTooLarge(err) {
			ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
			return
		}
		log.FromContext(ctx).WarnContext(ctx, "CSV import rejected",
			log.NewFields().WithOperation(log.OpImport).WithError(err).ToSlice()...)
		InputError(err).Write(w)
		return
	}

	s.charts.Purge()
	NewJSONResponse().Body(map[string]int{"imported": n}).Write(w)
}

func (s *Server) handleExportSheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, err := s.ledger.ExportToSheet(ctx)
	switch {
	case errors.Is(err, services.ErrExportDisabled):
		ErrorResponse(http.StatusServiceUnavailable, err.Error()).Write(w)
		return
	case err != nil:
		log.FromContext(ctx).LogError(ctx, "Sheet export failed", err, log.OpExport, nil)
		ErrorResponse(http.StatusBadGateway, "sheet export failed").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]string{"ref": ref}).Write(w)
}

func (s *Server) handleSaveLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.ledgerPath == "" {
		ErrorResponse(http.StatusServiceUnavailable, "no ledger file configured").Write(w)
		return
	}
	if _, err := s.ledger.SaveFile(ctx, s.ledgerPath); err != nil {
		log.FromContext(ctx).LogError(ctx, "Ledger save failed", err, log.OpSave,
			log.NewFields().WithOperation(log.OpSave))
		InternalServerError("ledger save failed").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]int{"saved": s.ledger.Len()}).Write(w)
}

func (s *Server) handleLoadLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.ledgerPath == "" {
		ErrorResponse(http.StatusServiceUnavailable, "no ledger file configured").Write(w)
		return
	}
	n, err := s.ledger.LoadFile(ctx, s.ledgerPath)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Ledger load failed",
			log.NewFields().WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		InputError(err).Write(w)
		return
	}
	s.charts.Purge()
	NewJSONResponse().Body(map[string]int{"loaded": n}).Write(w)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, chartCategories)
}

func (s *Server) handleTotalsChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, chartTotals)
}

// serveChart renders or reuses a pie for the selected month. Charts are cached
// per ledger version, so any mutation makes old entries unreachable.
func (s *Server) serveChart(w http.ResponseWriter, r *http.Request, kind string) {
	ctx := r.Context()
	sel, err := ParseMonthParam(r.URL.Query())
	if err != nil {
		InputError(err).Write(w)
		return
	}

	records, version := s.ledger.Snapshot()
	key := chartKey(version, sel, kind)

	png, err := s.charts.GetOrCompute(key, func() ([]byte, error) {
		sum := core.Summarize(records, sel)
		if kind == chartTotals {
			return chart.RenderTotalsPie("Income vs Expense ("+sel.String()+")", sum.Totals)
		}
		return chart.RenderBreakdownPie("Expenses by Category ("+sel.String()+")", sum.ByCategory)
	})
	switch {
	case errors.Is(err, chart.ErrNoData):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		log.FromContext(ctx).LogError(ctx, "Chart render failed", err, log.OpRender, nil)
		InternalServerError("chart render failed").Write(w)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func chartKey(version uint64, sel core.MonthSelector, kind string) string {
	return fmt.Sprintf("%d:%d:%s", version, int(sel), kind)
}
