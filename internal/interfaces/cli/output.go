package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/PriviQ/pkg/types/policy"
)

// textRenderer is implemented by results with a human-readable layout.
type textRenderer interface {
	renderText(w io.Writer, p painter)
}

// tableProvider is implemented by results that can be shown as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format selected by --output. JSON always
// encodes data itself, so views keep the wire field names.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format, noColor := FormatText, false
	if cc, err := GetCLIContext(cmd); err == nil {
		format, noColor = cc.OutputFormat, cc.NoColor
	}
	out := cmd.OutOrStdout()

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatTableOutput:
		if tp, ok := data.(tableProvider); ok {
			_, err := fmt.Fprint(out, FormatTable(tp.TableHeaders(), tp.TableRows()))
			return err
		}
	}
	if tr, ok := data.(textRenderer); ok {
		tr.renderText(out, painter{enabled: !noColor})
		return nil
	}
	_, err := fmt.Fprintf(out, "%+v\n", data)
	return err
}

// PrintWarnings writes source warnings to stderr.
func PrintWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			if i == len(headers)-1 {
				sb.WriteString(val)
			} else {
				sb.WriteString(padRight(val, widths[i]))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// ─────────────────────────────────────────────────────────────────────────────
// Colors
// ─────────────────────────────────────────────────────────────────────────────

var (
	colorHigh     = color.New(color.FgRed, color.Bold)
	colorModerate = color.New(color.FgYellow)
	colorLow      = color.New(color.FgGreen)
	colorHeading  = color.New(color.Bold)
)

// painter applies colors unless --no-color is set. fatih/color still drops
// them when stdout is not a terminal.
type painter struct {
	enabled bool
}

func (p painter) paint(c *color.Color, s string) string {
	if !p.enabled {
		return s
	}
	return c.Sprint(s)
}

func (p painter) bucket(b policy.Bucket, s string) string {
	switch b {
	case policy.BucketHigh:
		return p.paint(colorHigh, s)
	case policy.BucketModerate:
		return p.paint(colorModerate, s)
	default:
		return p.paint(colorLow, s)
	}
}

func (p painter) level(l policy.Level) string {
	switch l {
	case policy.LevelHigh:
		return p.paint(colorHigh, string(l))
	case policy.LevelModerate:
		return p.paint(colorModerate, string(l))
	default:
		return p.paint(colorLow, string(l))
	}
}

func (p painter) heading(s string) string { return p.paint(colorHeading, s) }

// ─────────────────────────────────────────────────────────────────────────────
// Views
// ─────────────────────────────────────────────────────────────────────────────

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func percent(f float64) string { return strconv.FormatFloat(f*100, 'f', 1, 64) + "%" }

type classifyView policy.ClassifyResult

func (v *classifyView) renderText(w io.Writer, p painter) {
	fmt.Fprintf(w, "Risk score: %d (%s)\n", v.Risk.Score, p.level(v.Risk.Level))
	fmt.Fprintf(w, "  %s %s\n", p.bucket(policy.BucketHigh, "High:    "), joinOrNone(v.Keywords.High))
	fmt.Fprintf(w, "  %s %s\n", p.bucket(policy.BucketModerate, "Moderate:"), joinOrNone(v.Keywords.Moderate))
	fmt.Fprintf(w, "  %s %s\n", p.bucket(policy.BucketLow, "Low:     "), joinOrNone(v.Keywords.Low))
}

func (v *classifyView) TableHeaders() []string { return []string{"TIER", "COUNT", "KEYWORDS"} }

func (v *classifyView) TableRows() [][]string {
	return [][]string{
		{"high", strconv.Itoa(len(v.Keywords.High)), joinOrNone(v.Keywords.High)},
		{"moderate", strconv.Itoa(len(v.Keywords.Moderate)), joinOrNone(v.Keywords.Moderate)},
		{"low", strconv.Itoa(len(v.Keywords.Low)), joinOrNone(v.Keywords.Low)},
	}
}

type densityView policy.DensityResult

func (v *densityView) renderText(w io.Writer, _ painter) {
	fmt.Fprintf(w, "Risk density: %.4f\n", v.Density)
}

func (v *densityView) TableHeaders() []string { return []string{"METRIC", "VALUE"} }

func (v *densityView) TableRows() [][]string {
	return [][]string{{"density", strconv.FormatFloat(v.Density, 'f', 4, 64)}}
}

type categorizeView policy.CategorizeResult

func (v *categorizeView) renderText(w io.Writer, p painter) {
	if len(v.Categories) == 0 {
		fmt.Fprintln(w, "No risk categories found.")
		return
	}
	shares := make(map[string]float64, len(v.Distribution))
	for _, s := range v.Distribution {
		shares[s.Category] = s.Share
	}
	for _, c := range v.Categories {
		fmt.Fprintf(w, "%s (%s): %s\n", p.heading(c.Category), percent(shares[c.Category]), strings.Join(c.Hits, ", "))
	}
}

func (v *categorizeView) TableHeaders() []string {
	return []string{"CATEGORY", "HITS", "SHARE", "KEYWORDS"}
}

func (v *categorizeView) TableRows() [][]string {
	shares := make(map[string]float64, len(v.Distribution))
	for _, s := range v.Distribution {
		shares[s.Category] = s.Share
	}
	rows := make([][]string, 0, len(v.Categories))
	for _, c := range v.Categories {
		rows = append(rows, []string{c.Category, strconv.Itoa(len(c.Hits)), percent(shares[c.Category]), strings.Join(c.Hits, ", ")})
	}
	return rows
}

type highlightView policy.HighlightResult

func (v *highlightView) renderText(w io.Writer, p painter) {
	renderHighlights(w, p, v.Highlights)
}

func renderHighlights(w io.Writer, p painter, hs []policy.HighlightedSentence) {
	if len(hs) == 0 {
		fmt.Fprintln(w, "No risky sentences found.")
		return
	}
	for _, h := range hs {
		tag := fmt.Sprintf("[%-8s %.2f]", h.Bucket, h.Score)
		fmt.Fprintf(w, "%s %s\n", p.bucket(h.Bucket, tag), p.bucket(h.Bucket, h.Text))
	}
}

func (v *highlightView) TableHeaders() []string { return []string{"#", "BUCKET", "SCORE", "SENTENCE"} }

func (v *highlightView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Highlights))
	for _, h := range v.Highlights {
		rows = append(rows, []string{strconv.Itoa(h.Index), string(h.Bucket), strconv.FormatFloat(h.Score, 'f', 2, 64), h.Text})
	}
	return rows
}

type summaryView policy.SummaryResult

func (v *summaryView) renderText(w io.Writer, _ painter) {
	fmt.Fprintln(w, v.Summary)
}

type complianceView policy.ComplianceResult

func (v *complianceView) renderText(w io.Writer, p painter) {
	if v.Compliant {
		fmt.Fprintln(w, p.paint(colorLow, "Compliant: every required clause is present."))
		return
	}
	fmt.Fprintln(w, p.paint(colorHigh, "Not compliant. Missing clauses:"))
	for _, m := range v.Missing {
		fmt.Fprintf(w, "  - %s\n", m)
	}
}

func (v *complianceView) TableHeaders() []string { return []string{"MISSING CLAUSE"} }

func (v *complianceView) TableRows() [][]string {
	rows := make([][]string, len(v.Missing))
	for i, m := range v.Missing {
		rows[i] = []string{m}
	}
	return rows
}

type translateView policy.TranslateResult

func (v *translateView) renderText(w io.Writer, _ painter) {
	fmt.Fprintln(w, v.Text)
}

type languagesView []policy.Language

func (v languagesView) renderText(w io.Writer, _ painter) {
	for _, l := range v {
		fmt.Fprintf(w, "%-6s %s\n", l.Code, l.Name)
	}
}

func (v languagesView) TableHeaders() []string { return []string{"CODE", "NAME"} }

func (v languagesView) TableRows() [][]string {
	rows := make([][]string, len(v))
	for i, l := range v {
		rows[i] = []string{l.Code, l.Name}
	}
	return rows
}

type reportView policy.Report

func (v *reportView) renderText(w io.Writer, p painter) {
	fmt.Fprintf(w, "%s\n", p.heading("Risk"))
	(&classifyView{Keywords: v.Keywords, Risk: v.Risk}).renderText(w, p)
	fmt.Fprintf(w, "  Density: %.4f\n\n", v.Density)

	fmt.Fprintf(w, "%s\n", p.heading("Categories"))
	(&categorizeView{Categories: v.Categories, Distribution: v.Distribution}).renderText(w, p)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", p.heading("Highlights"))
	renderHighlights(w, p, v.Highlights)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n%s\n\n", p.heading("Risky summary"), v.RiskySummary)
	fmt.Fprintf(w, "%s\n%s\n\n", p.heading("Summary"), v.Summary)

	fmt.Fprintf(w, "%s\n", p.heading("Compliance"))
	(&complianceView{Missing: v.MissingClauses, Compliant: v.Compliant}).renderText(w, p)

	if v.Translation != nil {
		fmt.Fprintf(w, "\n%s (%s)\n%s\n\n%s\n", p.heading("Translation"), v.Translation.Language,
			v.Translation.RiskySummary, v.Translation.Summary)
	}
	for _, e := range v.Errors {
		fmt.Fprintf(w, "\n%s %s: %s\n", p.paint(colorHigh, "Section failed:"), e.Section, e.Message)
	}
}

func (v *reportView) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

func (v *reportView) TableRows() [][]string {
	rows := [][]string{
		{"score", strconv.Itoa(v.Risk.Score)},
		{"level", string(v.Risk.Level)},
		{"density", strconv.FormatFloat(v.Density, 'f', 4, 64)},
		{"high keywords", joinOrNone(v.Keywords.High)},
		{"moderate keywords", joinOrNone(v.Keywords.Moderate)},
		{"low keywords", joinOrNone(v.Keywords.Low)},
		{"categories", strconv.Itoa(len(v.Categories))},
		{"risky sentences", strconv.Itoa(len(v.Highlights))},
		{"compliant", strconv.FormatBool(v.Compliant)},
		{"missing clauses", joinOrNone(v.MissingClauses)},
	}
	for _, e := range v.Errors {
		rows = append(rows, []string{"error: " + e.Section, e.Message})
	}
	return rows
}
