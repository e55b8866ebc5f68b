package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nature-catalyst/impact-intake/internal/entity"
	"github.com/nature-catalyst/impact-intake/internal/repository"
)

// Service produces CSV and XLSX exports of the project collection for the
// admin dashboard.
type Service struct {
	repo   repository.ProjectRepository
	logger *slog.Logger
}

func NewService(repo repository.ProjectRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Column order is fixed; downstream spreadsheets key on it.
var headers = []string{
	"Project Name", "Incorporation Date", "Sector", "Country", "Region", "Main Country",
	"Status", "Maturity Stage", "Business Model", "Impact Area", "Core Team",
	"Revenue (USD)", "IRR (%)", "Financing Need (USD)", "Market Size (USD)", "Breakeven Year",
	"Instrument", "Use of Proceeds", "Key Risks", "Barriers", "Problem", "Solution",
	"SDGs", "Email", "Last Update", "Portfolio", "Rejected",
}

// row flattens a project into the export column order. Free-text and list
// cells come back pre-quoted for CSV; numeric cells are bare.
func row(p *entity.Project) []string {
	q := func(s string) string {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	list := func(l []string) string {
		return q(strings.Join(l, "; "))
	}
	num := func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var breakeven string
	if p.Breakeven != 0 {
		breakeven = num(p.Breakeven)
	}
	return []string{
		q(p.ProjectName),
		p.IncorporationDate,
		p.Sector,
		p.Country,
		p.Region,
		p.MainCountry,
		string(p.Status),
		p.MaturityStage,
		q(p.BusinessModel),
		q(p.ImpactArea),
		q(p.CoreTeam),
		num(p.Revenues),
		strconv.FormatFloat(p.ExpectedIRR, 'f', 1, 64),
		num(p.FinancingNeed),
		num(p.MarketSize),
		breakeven,
		p.Instrument,
		q(p.UseOfProceeds),
		q(p.KeyRisks),
		q(p.Barriers),
		q(p.Problem),
		q(p.Solution),
		list(p.SDGs),
		p.Email,
		p.LastUpdate.Format("2006-01-02"),
		list(p.Portfolio),
		list(p.Rejected),
	}
}

// ExportProjectsCSV renders the full collection as CSV bytes.
func (s *Service) ExportProjectsCSV(ctx context.Context) ([]byte, error) {
	start := time.Now()
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	lines := make([]string, 0, len(projects)+1)
	lines = append(lines, strings.Join(headers, ","))
	for _, p := range projects {
		lines = append(lines, strings.Join(row(p), ","))
	}

	s.logger.Info("export.csv.ok",
		"rows", len(projects),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []byte(strings.Join(lines, "\n")), nil
}

// ExportFilename builds the dated download name, e.g.
// impact_projects_2026-08-29.csv.
func ExportFilename(ext string) string {
	return fmt.Sprintf("impact_projects_%s.%s", time.Now().UTC().Format("2006-01-02"), ext)
}

// ExportProjectsXLSX returns an XLSX workbook with the same columns as the
// CSV export, minus the CSV quoting.
func (s *Service) ExportProjectsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Projects"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, p := range projects {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, p.ProjectName)
		write(2, p.IncorporationDate)
		write(3, p.Sector)
		write(4, p.Country)
		write(5, p.Region)
		write(6, p.MainCountry)
		write(7, string(p.Status))
		write(8, p.MaturityStage)
		write(9, p.BusinessModel)
		write(10, p.ImpactArea)
		write(11, p.CoreTeam)
		write(12, p.Revenues)
		write(13, p.ExpectedIRR)
		write(14, p.FinancingNeed)
		write(15, p.MarketSize)
		write(16, p.Breakeven)
		write(17, p.Instrument)
		write(18, p.UseOfProceeds)
		write(19, p.KeyRisks)
		write(20, p.Barriers)
		write(21, p.Problem)
		write(22, p.Solution)
		write(23, strings.Join(p.SDGs, "; "))
		write(24, p.Email)
		write(25, p.LastUpdate.Format("2006-01-02"))
		write(26, strings.Join(p.Portfolio, "; "))
		write(27, strings.Join(p.Rejected, "; "))
	}

	// Widen the text-heavy columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // name
	_ = f.SetColWidth(sheet, "I", "K", 40) // model/impact/team
	_ = f.SetColWidth(sheet, "R", "V", 40) // proceeds..solution

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(projects),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
