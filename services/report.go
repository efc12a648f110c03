package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"morsel-sales/models"
	"morsel-sales/utils"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	upStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	downStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
)

type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate summarises the dataset around the cutoff date.
func (s *ReportService) Generate(d Dataset, product string, cutoff time.Time, dropped int) *models.SalesReport {
	report := &models.SalesReport{
		Product:      product,
		RegionTotals: make(map[string]decimal.Decimal),
		Cutoff:       midnight(cutoff),
		Comparison:   Compare(d, cutoff),
		Dropped:      dropped,
		TotalSales:   decimal.Zero,
	}

	if d.Len() == 0 {
		return report
	}

	report.TotalRecords = d.Len()
	report.FirstDate, report.LastDate, _ = d.Span()
	report.TotalSales = d.Total()

	for _, r := range d.records {
		report.RegionTotals[r.Region] = report.RegionTotals[r.Region].Add(r.Sales)
	}

	for _, day := range d.DailyTotals() {
		if report.BestDay == nil || day.Sales.GreaterThan(report.BestDay.Sales) {
			best := day
			report.BestDay = &best
		}
	}

	s.logger.Debug("[report] %d records, %d regions, span %s..%s",
		report.TotalRecords, len(report.RegionTotals),
		report.FirstDate.Format(models.DateLayout), report.LastDate.Format(models.DateLayout))
	return report
}

// Print renders the report as a terminal card.
func (s *ReportService) Print(w io.Writer, r *models.SalesReport) {
	var b strings.Builder

	fmt.Fprintln(&b, titleStyle.Render(fmt.Sprintf("%s Sales Summary", TitleCase(r.Product))))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, headStyle.Render("Overview"))
	fmt.Fprintf(&b, "Records        : %s\n", valueStyle.Render(fmt.Sprintf("%d", r.TotalRecords)))
	fmt.Fprintf(&b, "Rows dropped   : %s\n", valueStyle.Render(fmt.Sprintf("%d", r.Dropped)))
	if r.TotalRecords > 0 {
		fmt.Fprintf(&b, "Date span      : %s → %s\n",
			r.FirstDate.Format(models.DateLayout), r.LastDate.Format(models.DateLayout))
		fmt.Fprintf(&b, "Total sales    : %s\n", valueStyle.Render(FormatMoney(r.TotalSales)))
	}
	if r.BestDay != nil {
		fmt.Fprintf(&b, "Best day       : %s (%s)\n",
			r.BestDay.Date.Format(models.DateLayout), FormatMoney(r.BestDay.Sales))
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, headStyle.Render("Sales by Region"))
	if len(r.RegionTotals) == 0 {
		fmt.Fprintln(&b, "No region data")
	} else {
		regions := make([]string, 0, len(r.RegionTotals))
		for region := range r.RegionTotals {
			regions = append(regions, region)
		}
		sort.Slice(regions, func(i, j int) bool {
			return r.RegionTotals[regions[i]].GreaterThan(r.RegionTotals[regions[j]])
		})
		for _, region := range regions {
			fmt.Fprintf(&b, "%-14s %s\n", TitleCase(region), FormatMoney(r.RegionTotals[region]))
		}
	}
	fmt.Fprintln(&b)

	c := r.Comparison
	fmt.Fprintln(&b, headStyle.Render("Before vs After (Price Increase)"))
	fmt.Fprintf(&b, "Price increase : %s\n", r.Cutoff.Format(models.DateLayout))
	fmt.Fprintf(&b, "Total before   : %s\n", FormatMoney(c.TotalBefore))
	fmt.Fprintf(&b, "Total after    : %s\n", FormatMoney(c.TotalAfter))
	fmt.Fprintf(&b, "Change         : %s (%s)\n", styleChange(c), FormatMoney(c.Delta))

	fmt.Fprintln(w, cardStyle.Render(strings.TrimRight(b.String(), "\n")))
}

func styleChange(c models.ComparisonResult) string {
	text := c.PercentChange.String()
	if c.PercentChange.Infinite {
		text += " (before = 0)"
	}
	if c.PercentChange.Infinite || c.PercentChange.Value.IsPositive() {
		return upStyle.Render(text)
	}
	if c.PercentChange.Value.IsNegative() {
		return downStyle.Render(text)
	}
	return valueStyle.Render(text)
}

// FormatMoney renders d with two decimals and comma thousands separators.
func FormatMoney(d decimal.Decimal) string {
	d = d.Round(2)
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	b.WriteString(frac)
	return b.String()
}

// TitleCase upper-cases the first letter of every word and collapses runs
// of whitespace. The rest of each word is left as is.
func TitleCase(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(strings.Join(strings.Fields(s), " "))
}
