package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// JobID is a backend job identifier, which may arrive as a JSON number or
// string. It marshals back in the same form.
type JobID string

func (id *JobID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = JobID(s)
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("job id: %w", err)
	}
	*id = JobID(n.String())
	return nil
}

func (id JobID) MarshalJSON() ([]byte, error) {
	if id.isNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id JobID) isNumeric() bool {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

// JobRecord is a job posting as the backend returns it. The typed fields are
// the ones the list view renders; Raw keeps the full payload.
type JobRecord struct {
	ID          JobID    `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	SalaryMin   *float64 `json:"salary_min,omitempty"`
	SalaryMax   *float64 `json:"salary_max,omitempty"`
	JobType     string   `json:"job_type,omitempty"`
	Experience  string   `json:"experience,omitempty"`
	Education   string   `json:"education,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	PostedAt    string   `json:"posted_at,omitempty"`
	Deadline    string   `json:"deadline,omitempty"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source,omitempty"`
	URL         string   `json:"url,omitempty"`
	Status      string   `json:"status,omitempty"`
	TargetGroup string   `json:"target_group,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type jobRecordFields JobRecord

// UnmarshalJSON keeps the payload as is and fills the display fields
// leniently: a field of an unexpected JSON type is left empty instead of
// failing the record.
func (j *JobRecord) UnmarshalJSON(data []byte) error {
	*j = JobRecord{Raw: append(json.RawMessage(nil), data...)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	var id JobID
	if raw, ok := fields["id"]; ok && id.UnmarshalJSON(raw) == nil {
		j.ID = id
	}
	j.Title = text(fields["title"])
	j.Company = text(fields["company"])
	j.Location = text(fields["location"])
	j.SalaryMin = number(fields["salary_min"])
	j.SalaryMax = number(fields["salary_max"])
	j.JobType = text(fields["job_type"])
	j.Experience = text(fields["experience"])
	j.Education = text(fields["education"])
	j.Industry = text(fields["industry"])
	j.PostedAt = text(fields["posted_at"])
	j.Deadline = text(fields["deadline"])
	j.Description = text(fields["description"])
	j.Source = text(fields["source"])
	j.URL = text(fields["url"])
	j.Status = text(fields["status"])
	j.TargetGroup = text(fields["target_group"])
	return nil
}

// text reads a JSON string, number or bool as display text.
func text(raw json.RawMessage) string {
	var v interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// number reads a JSON number or a numeric string.
func number(raw json.RawMessage) *float64 {
	var v interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil
	}
	switch v := v.(type) {
	case float64:
		return &v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return &f
		}
	}
	return nil
}

// MarshalJSON emits the original payload when there is one.
func (j JobRecord) MarshalJSON() ([]byte, error) {
	if len(j.Raw) > 0 {
		return j.Raw, nil
	}
	return json.Marshal(jobRecordFields(j))
}

// JobsPage is the list endpoint response.
type JobsPage struct {
	Jobs  []JobRecord `json:"jobs"`
	Total int         `json:"total"`
}

func (p JobsPage) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

func (p *JobsPage) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, p)
}
