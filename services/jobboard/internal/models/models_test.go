package models

import (
	"encoding/json"
	"net/url"
	"testing"
)

func TestEmptyFiltersDeriveNoParams(t *testing.T) {
	if got := (FilterCriteria{}).QueryValues(); len(got) != 0 {
		t.Fatalf("expected no params, got %v", got)
	}
	if got := QueryParams(FilterCriteria{}, SortSpec{}); len(got) != 0 {
		t.Fatalf("expected no params without sort, got %v", got)
	}
}

func TestOnlyNonEmptyFieldsAppear(t *testing.T) {
	filters := FilterCriteria{
		Keyword:   "go & rust",
		Education: "本科",
	}
	values := filters.QueryValues()
	if len(values) != 2 {
		t.Fatalf("expected 2 params, got %v", values)
	}

	decoded, err := url.ParseQuery(values.Encode())
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	if decoded.Get("keyword") != "go & rust" || decoded.Get("education") != "本科" {
		t.Fatalf("values did not round-trip: %v", decoded)
	}
	if _, ok := decoded["location"]; ok {
		t.Fatalf("empty dimension leaked into query")
	}
}

func TestQueryParamsExample(t *testing.T) {
	filters := FilterCriteria{Keyword: "backend", Location: "Beijing"}
	got := QueryParams(filters, DefaultSort).Encode()
	want := "keyword=backend&location=Beijing&sort_field=posted_at&sort_order=descend"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSortFieldWithoutOrderDefaultsToDescend(t *testing.T) {
	got := QueryParams(FilterCriteria{}, SortSpec{Field: "salary"})
	if got.Get("sort_order") != "descend" {
		t.Fatalf("expected descend, got %q", got.Get("sort_order"))
	}
}

func TestWithUnknownDimension(t *testing.T) {
	if _, err := (FilterCriteria{}).With("color", "red"); err == nil {
		t.Fatalf("expected error for unknown dimension")
	}
	f, err := (FilterCriteria{}).With(JobType, "intern")
	if err != nil {
		t.Fatalf("with: %v", err)
	}
	if f.Get(JobType) != "intern" {
		t.Fatalf("expected intern, got %q", f.Get(JobType))
	}
}

func TestJobIDKeepsJSONForm(t *testing.T) {
	var ids []JobID
	if err := json.Unmarshal([]byte(`[1, "abc", "007"]`), &ids); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(BatchRequest{JobIDs: ids})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"jobIds":[1,"abc","007"]}` {
		t.Fatalf("unexpected body %s", out)
	}
}

func TestJobRecordKeepsRawPayload(t *testing.T) {
	payload := `{"id":1,"title":"Engineer","extra":{"team":"infra"}}`
	var job JobRecord
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if job.ID != "1" || job.Title != "Engineer" {
		t.Fatalf("unexpected record %+v", job)
	}
	out, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != payload {
		t.Fatalf("expected raw payload, got %s", out)
	}
}

func TestJobRecordToleratesFieldTypes(t *testing.T) {
	payload := `{"id":"a-2","title":"Analyst","target_group":2025,"salary_min":"8000","salary_max":{"max":12},"company":null,"deadline":["2024-09-01"]}`
	var job JobRecord
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if job.ID != "a-2" || job.Title != "Analyst" || job.TargetGroup != "2025" {
		t.Fatalf("unexpected record %+v", job)
	}
	if job.SalaryMin == nil || *job.SalaryMin != 8000 {
		t.Fatalf("expected numeric string salary to be read, got %v", job.SalaryMin)
	}
	if job.SalaryMax != nil || job.Company != "" || job.Deadline != "" {
		t.Fatalf("expected mismatched fields to stay empty, got %+v", job)
	}
	if string(job.Raw) != payload {
		t.Fatalf("expected raw payload kept, got %s", job.Raw)
	}
}

func TestJobsPageWithMixedRecords(t *testing.T) {
	body := `{"jobs":[{"id":1,"title":"Engineer"},{"id":2,"target_group":2025,"salary_min":"8000"}],"total":2}`
	var page JobsPage
	if err := page.UnmarshalBinary([]byte(body)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(page.Jobs) != 2 || page.Total != 2 || page.Jobs[1].ID != "2" {
		t.Fatalf("unexpected page %+v", page)
	}
}
