package buildbot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Status summarizes the outcome of a build.
type Status string

const (
	StatusRunning    Status = "running"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
)

// stepFailure is the result code Buildbot uses for a failed step.
const stepFailure = 2

// BuildRecord is the normalized view of one build status document.
type BuildRecord struct {
	Builder  string
	Status   Status
	Start    time.Time
	Finish   time.Time // zero while the build is running
	Number   int
	Revision string // empty when the build carries no got_revision
	Error    string // set for failed builds
	ErrorLog string // reference to the first failing step's log, when known
}

// Finished reports whether the build carried a finish timestamp.
func (b BuildRecord) Finished() bool {
	return !b.Finish.IsZero()
}

// Duration returns the elapsed build time; running builds measure up to now.
func (b BuildRecord) Duration(now time.Time) time.Duration {
	if b.Start.IsZero() {
		return 0
	}
	end := now
	if b.Finished() {
		end = b.Finish
	}
	if end.Before(b.Start) {
		return 0
	}
	return end.Sub(b.Start)
}

type buildDocument struct {
	BuilderName *string              `json:"builderName"`
	Number      json.RawMessage      `json:"number"`
	Times       *[]json.RawMessage   `json:"times"`
	Properties  *[][]json.RawMessage `json:"properties"`
	Results     json.RawMessage      `json:"results"`
	Text        json.RawMessage      `json:"text"`
	Steps       json.RawMessage      `json:"steps"`
}

type stepDocument struct {
	Results []json.RawMessage   `json:"results"`
	Logs    [][]json.RawMessage `json:"logs"`
}

// ParseBuild decodes a build status document from r.
func ParseBuild(r io.Reader) (BuildRecord, error) {
	var doc buildDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return BuildRecord{}, &MalformedResponseError{Field: typeErr.Field, Err: err}
		}
		return BuildRecord{}, &MalformedResponseError{Err: err}
	}

	if doc.BuilderName == nil {
		return BuildRecord{}, &MalformedResponseError{Field: "builderName"}
	}
	if isAbsent(doc.Number) {
		return BuildRecord{}, &MalformedResponseError{Field: "number"}
	}
	number, err := strconv.Atoi(string(doc.Number))
	if err != nil {
		return BuildRecord{}, &MalformedResponseError{Field: "number", Err: err}
	}
	if doc.Times == nil || len(*doc.Times) == 0 {
		return BuildRecord{}, &MalformedResponseError{Field: "times"}
	}
	if doc.Properties == nil {
		return BuildRecord{}, &MalformedResponseError{Field: "properties"}
	}

	times := *doc.Times
	start, err := parseTimestamp(times[0])
	if err != nil {
		return BuildRecord{}, &MalformedResponseError{Field: "times", Err: err}
	}

	build := BuildRecord{
		Builder: *doc.BuilderName,
		Status:  resultStatus(doc.Results),
		Start:   start,
		Number:  number,
	}

	// An integer (or null) second timestamp means the build has not finished.
	if len(times) > 1 && isFloatLiteral(times[1]) {
		if finish, err := parseTimestamp(times[1]); err == nil {
			build.Finish = finish
		}
	}

	build.Revision = findRevision(*doc.Properties)

	if build.Status == StatusFailed {
		var text []string
		if isAbsent(doc.Text) {
			return BuildRecord{}, &MalformedResponseError{Field: "text"}
		}
		if err := json.Unmarshal(doc.Text, &text); err != nil {
			return BuildRecord{}, &MalformedResponseError{Field: "text", Err: err}
		}
		build.Error = strings.Join(text, ", ")
		build.ErrorLog = findErrorLog(doc.Steps)
	}

	return build, nil
}

func resultStatus(raw json.RawMessage) Status {
	if !isIntegerLiteral(raw) {
		return StatusRunning
	}
	code, err := strconv.ParseInt(string(raw), 10, 64)
	if err == nil && code == 0 {
		return StatusSuccessful
	}
	return StatusFailed
}

func findRevision(properties [][]json.RawMessage) string {
	for _, prop := range properties {
		if len(prop) < 2 {
			continue
		}
		var key, value string
		if json.Unmarshal(prop[0], &key) != nil || key != "got_revision" {
			continue
		}
		if json.Unmarshal(prop[1], &value) != nil || value == "" {
			continue
		}
		return value
	}
	return ""
}

// findErrorLog returns the first log reference of the first failed step.
// Steps that do not fit the expected shape are skipped.
func findErrorLog(raw json.RawMessage) string {
	if isAbsent(raw) {
		return ""
	}
	var steps []json.RawMessage
	if json.Unmarshal(raw, &steps) != nil {
		return ""
	}
	for _, rawStep := range steps {
		var step stepDocument
		if json.Unmarshal(rawStep, &step) != nil || len(step.Results) == 0 {
			continue
		}
		code, err := strconv.ParseFloat(string(step.Results[0]), 64)
		if err != nil || code != stepFailure {
			continue
		}
		if len(step.Logs) == 0 || len(step.Logs[0]) < 2 {
			continue
		}
		var ref string
		if json.Unmarshal(step.Logs[0][1], &ref) != nil {
			continue
		}
		return ref
	}
	return ""
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if !isNumberLiteral(raw) {
		return time.Time{}, fmt.Errorf("timestamp %s is not a number", string(raw))
	}
	secs, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(secs), 0), nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func isNumberLiteral(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	c := trimmed[0]
	return c == '-' || ('0' <= c && c <= '9')
}

func isIntegerLiteral(raw json.RawMessage) bool {
	return isNumberLiteral(raw) && !bytes.ContainsAny(raw, ".eE")
}

func isFloatLiteral(raw json.RawMessage) bool {
	return isNumberLiteral(raw) && bytes.ContainsAny(raw, ".eE")
}
