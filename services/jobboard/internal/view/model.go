package view

import (
	"math"
	"strconv"
	"strings"
	"time"

	"campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/models"
	"campusjobs/services/jobboard/internal/query"
	"campusjobs/services/jobboard/internal/store"
)

const placeholder = "-"

const defaultPageSize = 20

// Row is one rendered job.
type Row struct {
	ID          models.JobID
	Title       string
	Company     string
	Industry    string
	JobType     string
	Location    string
	Salary      string
	Source      string
	TargetGroup string
	PostedAt    string
	Deadline    string
	Status      string
	URL         string
	Selected    bool
}

// Model is everything a front end needs to draw the job list.
type Model struct {
	Filters      models.FilterCriteria
	Sort         models.SortSpec
	Selection    []models.JobID
	SavedFilters []models.SavedFilter

	Status    query.Status
	Error     string
	Retryable bool
	Total     int
	Rows      []Row

	Page      int
	PageCount int
	PageSize  int

	Notice string
}

// Build derives the model from the store, the latest query result and the
// client-side page. It has no side effects.
func Build(st store.State, res query.Result, page, pageSize int, now time.Time) Model {
	m := Model{
		Filters:      st.Filters,
		Sort:         st.Sort,
		Selection:    st.Selection,
		SavedFilters: st.SavedFilters,
		Status:       res.Status,
		PageSize:     pageSize,
	}
	if res.Err != nil {
		m.Error = errors.UserMessage(res.Err)
		kind := errors.TypeOf(res.Err)
		m.Retryable = kind == errors.ErrTypeTimeout || kind == errors.ErrTypeNetwork
	}

	var jobs []models.JobRecord
	if res.Page != nil {
		jobs = res.Page.Jobs
		m.Total = res.Page.Total
	}

	start, end, current, count := Paginate(len(jobs), page, pageSize)
	m.Page, m.PageCount = current, count

	selected := make(map[models.JobID]struct{}, len(st.Selection))
	for _, id := range st.Selection {
		selected[id] = struct{}{}
	}
	m.Rows = make([]Row, 0, end-start)
	for _, job := range jobs[start:end] {
		_, isSelected := selected[job.ID]
		m.Rows = append(m.Rows, NewRow(job, now, isSelected))
	}
	return m
}

func NewRow(job models.JobRecord, now time.Time, selected bool) Row {
	status := job.Status
	if status == "" {
		status = "open"
	}
	return Row{
		ID:          job.ID,
		Title:       job.Title,
		Company:     job.Company,
		Industry:    orPlaceholder(job.Industry),
		JobType:     orPlaceholder(job.JobType),
		Location:    orPlaceholder(job.Location),
		Salary:      FormatSalary(job.SalaryMin, job.SalaryMax),
		Source:      orDefault(job.Source, "unknown"),
		TargetGroup: FormatTargetGroup(job.TargetGroup),
		PostedAt:    FormatDate(job.PostedAt),
		Deadline:    FormatDeadline(job.Deadline, now),
		Status:      status,
		URL:         orPlaceholder(job.URL),
		Selected:    selected,
	}
}

// Paginate clamps page into range and returns the slice bounds for it. Pages
// are 1-based; an empty list still has one page.
func Paginate(n, page, pageSize int) (start, end, current, count int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	count = (n + pageSize - 1) / pageSize
	if count == 0 {
		count = 1
	}
	current = page
	if current < 1 {
		current = 1
	}
	if current > count {
		current = count
	}
	start = (current - 1) * pageSize
	end = start + pageSize
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	return start, end, current, count
}

// FormatSalary renders a range in thousands, e.g. "12k-20k". Missing or zero
// bounds read as negotiable.
func FormatSalary(min, max *float64) string {
	if min == nil || max == nil || *min == 0 || *max == 0 {
		return "negotiable"
	}
	return thousands(*min) + "k-" + thousands(*max) + "k"
}

func thousands(v float64) string {
	return strconv.FormatFloat(math.Round(v/1000), 'f', 0, 64)
}

func FormatTargetGroup(group string) string {
	if group == "" {
		return placeholder
	}
	return "class of " + group
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a backend timestamp as YYYY-MM-DD, passing through
// anything it cannot parse.
func FormatDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	t, ok := parseDate(s)
	if !ok {
		return s
	}
	return t.Format("2006-01-02")
}

// FormatDeadline marks past deadlines as expired and those at most three whole
// days away as closing soon.
func FormatDeadline(s string, now time.Time) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	t, ok := parseDate(s)
	if !ok {
		return s
	}
	date := t.Format("2006-01-02")
	if t.Before(now) {
		return date + " (expired)"
	}
	if int(t.Sub(now).Hours()/24) <= 3 {
		return date + " (closing soon)"
	}
	return date
}

func orPlaceholder(s string) string {
	return orDefault(s, placeholder)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
