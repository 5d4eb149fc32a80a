package console

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"campusjobs/services/jobboard/internal/models"
	"campusjobs/services/jobboard/internal/query"
	"campusjobs/services/jobboard/internal/view"
)

var nowFunc = time.Now

// Render draws m. It implements view.Renderer and is safe for concurrent use.
func (c *Console) Render(m view.Model) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprint(c.out, formatModel(m))
}

func formatModel(m view.Model) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n[%s] %d jobs | page %d/%d | sort: %s | selected: %d\n",
		m.Status, m.Total, m.Page, m.PageCount, describeSort(m.Sort), len(m.Selection))
	if !m.Filters.IsEmpty() {
		fmt.Fprintf(&b, "filters: %s\n", describeFilters(m.Filters))
	}

	switch {
	case m.Status == query.StatusLoading && len(m.Rows) == 0:
		b.WriteString("loading...\n")
	case len(m.Rows) > 0:
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, " \tID\tTITLE\tCOMPANY\tLOCATION\tSALARY\tTYPE\tTARGET\tDEADLINE\tSTATUS")
		for _, r := range m.Rows {
			mark := " "
			if r.Selected {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				mark, r.ID, r.Title, r.Company, r.Location, r.Salary, r.JobType, r.TargetGroup, r.Deadline, r.Status)
		}
		tw.Flush()
	case !m.Status.Failed() && !m.Status.Pending():
		b.WriteString("no jobs\n")
	}

	if m.Error != "" {
		b.WriteString("error: " + m.Error)
		if m.Retryable {
			b.WriteString(` (type "refresh" to retry)`)
		}
		b.WriteString("\n")
	}
	if m.Notice != "" {
		b.WriteString("> " + m.Notice + "\n")
	}
	return b.String()
}

func describeSort(s models.SortSpec) string {
	if s.Field == "" {
		return "none"
	}
	order := s.Order
	if order == models.SortUnset {
		order = models.SortDescend
	}
	return s.Field + " " + string(order)
}

func describeFilters(f models.FilterCriteria) string {
	parts := make([]string, 0, len(models.Dimensions))
	for _, d := range models.Dimensions {
		if v := f.Get(d); v != "" {
			parts = append(parts, string(d)+"="+v)
		}
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, " ")
}

func formatDetail(job *models.JobRecord) string {
	var b strings.Builder
	row := view.NewRow(*job, nowFunc(), false)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", row.ID)
	fmt.Fprintf(tw, "title\t%s\n", row.Title)
	fmt.Fprintf(tw, "company\t%s\n", row.Company)
	fmt.Fprintf(tw, "industry\t%s\n", row.Industry)
	fmt.Fprintf(tw, "location\t%s\n", row.Location)
	fmt.Fprintf(tw, "salary\t%s\n", row.Salary)
	fmt.Fprintf(tw, "type\t%s\n", row.JobType)
	fmt.Fprintf(tw, "experience\t%s\n", orDash(job.Experience))
	fmt.Fprintf(tw, "education\t%s\n", orDash(job.Education))
	fmt.Fprintf(tw, "target\t%s\n", row.TargetGroup)
	fmt.Fprintf(tw, "posted\t%s\n", row.PostedAt)
	fmt.Fprintf(tw, "deadline\t%s\n", row.Deadline)
	fmt.Fprintf(tw, "source\t%s\n", row.Source)
	fmt.Fprintf(tw, "url\t%s\n", row.URL)
	tw.Flush()

	if job.Description != "" {
		b.WriteString("\n" + job.Description + "\n")
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
