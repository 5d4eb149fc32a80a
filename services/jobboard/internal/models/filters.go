package models

import (
	"fmt"
	"net/url"
)

// Dimension names one filter of the job list. The set is closed.
type Dimension string

const (
	Keyword     Dimension = "keyword"
	CompanyType Dimension = "company_type"
	JobType     Dimension = "job_type"
	Location    Dimension = "location"
	TargetGroup Dimension = "target_group"
	SalaryRange Dimension = "salary_range"
	Education   Dimension = "education"
	Experience  Dimension = "experience"
)

// Dimensions lists every dimension in query order.
var Dimensions = []Dimension{
	Keyword, CompanyType, JobType, Location, TargetGroup, SalaryRange, Education, Experience,
}

func ParseDimension(s string) (Dimension, bool) {
	for _, d := range Dimensions {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// FilterCriteria narrows the job list. An empty field means no constraint.
type FilterCriteria struct {
	Keyword     string `json:"keyword"`
	CompanyType string `json:"company_type"`
	JobType     string `json:"job_type"`
	Location    string `json:"location"`
	TargetGroup string `json:"target_group"`
	SalaryRange string `json:"salary_range"`
	Education   string `json:"education"`
	Experience  string `json:"experience"`
}

func (f *FilterCriteria) field(d Dimension) *string {
	switch d {
	case Keyword:
		return &f.Keyword
	case CompanyType:
		return &f.CompanyType
	case JobType:
		return &f.JobType
	case Location:
		return &f.Location
	case TargetGroup:
		return &f.TargetGroup
	case SalaryRange:
		return &f.SalaryRange
	case Education:
		return &f.Education
	case Experience:
		return &f.Experience
	}
	return nil
}

func (f FilterCriteria) Get(d Dimension) string {
	if p := f.field(d); p != nil {
		return *p
	}
	return ""
}

// With returns a copy with one dimension replaced.
func (f FilterCriteria) With(d Dimension, value string) (FilterCriteria, error) {
	p := f.field(d)
	if p == nil {
		return f, fmt.Errorf("unknown filter dimension %q", d)
	}
	*p = value
	return f, nil
}

func (f FilterCriteria) IsEmpty() bool {
	return f == FilterCriteria{}
}

// QueryValues returns the non-empty dimensions as query parameters. Values are
// passed through untouched; escaping is left to url.Values.Encode.
func (f FilterCriteria) QueryValues() url.Values {
	values := url.Values{}
	for _, d := range Dimensions {
		if v := f.Get(d); v != "" {
			values.Set(string(d), v)
		}
	}
	return values
}

type SortOrder string

const (
	SortUnset   SortOrder = ""
	SortAscend  SortOrder = "ascend"
	SortDescend SortOrder = "descend"
)

func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case SortUnset, SortAscend, SortDescend:
		return SortOrder(s), true
	}
	return "", false
}

// SortSpec is the single active sort. An empty Field means unsorted.
type SortSpec struct {
	Field string    `json:"field,omitempty"`
	Order SortOrder `json:"order,omitempty"`
}

const PostedAtField = "posted_at"

var DefaultSort = SortSpec{Field: PostedAtField, Order: SortDescend}

// QueryParams builds the full list request: filters plus sort_field and
// sort_order. A field without an order is sent as descend.
func QueryParams(filters FilterCriteria, sort SortSpec) url.Values {
	values := filters.QueryValues()
	if sort.Field != "" {
		order := sort.Order
		if order == SortUnset {
			order = SortDescend
		}
		values.Set("sort_field", sort.Field)
		values.Set("sort_order", string(order))
	}
	return values
}
