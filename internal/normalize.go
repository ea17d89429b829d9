package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMalformedResponseShape is returned when no list of activity lines can be
// found anywhere in a payload.
var ErrMalformedResponseShape = errors.New("malformed response shape")

// Shape identifies which envelope a payload arrived in.
type Shape string

const (
	ShapeList          Shape = "list"
	ShapeLines         Shape = "lines"
	ShapeActivityLines Shape = "ActivityLines"
	ShapeODataValue    Shape = "value"
	// ShapeFirstList is the last resort: the first array-valued property of
	// an object, in document order.
	ShapeFirstList Shape = "first-list"
)

// knownEnvelopes are checked in order before falling back to ShapeFirstList.
var knownEnvelopes = []Shape{ShapeLines, ShapeActivityLines, ShapeODataValue}

// NormalizeStats describes what Normalize found in a payload.
type NormalizeStats struct {
	Shape   Shape
	Field   string // property the list was taken from, empty for ShapeList
	Total   int
	Skipped int
	// Degraded counts kept lines where at least one field fell back to zero.
	Degraded int
}

// Normalize extracts activity lines from a payload of unknown shape.
// Elements that are not objects, or that cannot be decoded, are skipped and
// counted rather than failing the batch. Unreadable numeric fields within an
// otherwise valid line fall back to absent values and the line is kept.
func Normalize(ctx context.Context, data []byte) ([]SubscriptionRecord, NormalizeStats, error) {
	logger := zerolog.Ctx(ctx)

	shape, field, elements, err := detectEnvelope(data)
	if err != nil {
		return nil, NormalizeStats{}, err
	}
	if shape == ShapeFirstList {
		logger.Debug().Str("field", field).Msg("no known envelope, using first list-valued property")
	}

	stats := NormalizeStats{Shape: shape, Field: field, Total: len(elements)}
	records := make([]SubscriptionRecord, 0, len(elements))
	for i, raw := range elements {
		if !isJSONKind(raw, '{') {
			stats.Skipped++
			logger.Warn().Int("index", i).Msg("skipping non-object activity line")
			continue
		}
		var line activityLine
		if err := json.Unmarshal(raw, &line); err != nil {
			stats.Skipped++
			logger.Warn().Int("index", i).Err(err).Msg("skipping undecodable activity line")
			continue
		}
		if fields := line.degradedFields(); len(fields) > 0 {
			stats.Degraded++
			logger.Debug().Int("index", i).Strs("fields", fields).Msg("unreadable fields treated as absent")
		}
		records = append(records, line.record())
	}
	return records, stats, nil
}

type jsonField struct {
	key   string
	value json.RawMessage
}

func detectEnvelope(data []byte) (Shape, string, []json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	switch {
	case isJSONKind(data, '['):
		var elements []json.RawMessage
		if err := json.Unmarshal(data, &elements); err != nil {
			return "", "", nil, fmt.Errorf("%w: %v", ErrMalformedResponseShape, err)
		}
		return ShapeList, "", elements, nil
	case isJSONKind(data, '{'):
		fields, err := orderedFields(data)
		if err != nil {
			return "", "", nil, fmt.Errorf("%w: %v", ErrMalformedResponseShape, err)
		}
		for _, shape := range knownEnvelopes {
			for _, f := range fields {
				if f.key == string(shape) && isJSONKind(f.value, '[') {
					elements, err := decodeList(f.value)
					if err != nil {
						return "", "", nil, err
					}
					return shape, f.key, elements, nil
				}
			}
		}
		for _, f := range fields {
			if isJSONKind(f.value, '[') {
				elements, err := decodeList(f.value)
				if err != nil {
					return "", "", nil, err
				}
				return ShapeFirstList, f.key, elements, nil
			}
		}
		return "", "", nil, fmt.Errorf("%w: object has no list-valued property", ErrMalformedResponseShape)
	default:
		return "", "", nil, fmt.Errorf("%w: payload is neither a list nor an object", ErrMalformedResponseShape)
	}
}

// orderedFields decodes the top level of a JSON object keeping document order,
// which a map would lose.
func orderedFields(data []byte) ([]jsonField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var fields []jsonField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", key, err)
		}
		fields = append(fields, jsonField{key: key, value: value})
	}
	return fields, nil
}

func decodeList(raw json.RawMessage) ([]json.RawMessage, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponseShape, err)
	}
	return elements, nil
}

func isJSONKind(raw []byte, open byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == open
}

// activityLine is the wire form of a SubscriptionRecord. encoding/json
// matches keys case-insensitively, so both camelCase and PascalCase
// payloads decode.
type activityLine struct {
	ActivityID       flexString      `json:"activityId"`
	SubscriptionName flexString      `json:"subscriptionName"`
	VendorName       flexString      `json:"vendorName"`
	VendorProfile    flexString      `json:"vendorProfile"`
	StartDate        flexTime        `json:"startDate"`
	EndDate          flexTime        `json:"endDate"`
	NextDueDate      flexTime        `json:"nextDueDate"`
	Frequency        flexString      `json:"frequency"`
	ContractAmount   flexAmount      `json:"contractAmount"`
	Category         *flexCategory   `json:"category"`
	Department       *wireDepartment `json:"department"`
	Status           *flexInt        `json:"status"`
}

type wireDepartment struct {
	Name   flexString `json:"name"`
	Budget flexFloat  `json:"budget"`
}

// degradedFields names the fields that could not be read and fell back to
// their zero value.
func (l activityLine) degradedFields() []string {
	var fields []string
	if l.ContractAmount.invalid {
		fields = append(fields, "contractAmount")
	}
	if l.Status != nil && l.Status.invalid {
		fields = append(fields, "status")
	}
	if l.Department != nil && l.Department.Budget.invalid {
		fields = append(fields, "department.budget")
	}
	return fields
}

func (l activityLine) record() SubscriptionRecord {
	rec := SubscriptionRecord{
		ActivityID:       string(l.ActivityID),
		SubscriptionName: string(l.SubscriptionName),
		VendorName:       string(l.VendorName),
		VendorProfile:    string(l.VendorProfile),
		StartDate:        time.Time(l.StartDate),
		EndDate:          time.Time(l.EndDate),
		NextDueDate:      time.Time(l.NextDueDate),
		Frequency:        string(l.Frequency),
		ContractAmount:   Amount{Value: l.ContractAmount.value},
		HasAmount:        l.ContractAmount.present,
	}
	if l.Category != nil {
		rec.Category = &Category{Name: l.Category.name}
	}
	if l.Department != nil {
		rec.Department = &Department{Name: string(l.Department.Name), Budget: l.Department.Budget.value}
	}
	if l.Status != nil && !l.Status.invalid {
		rec.Status = intPtr(l.Status.value)
	}
	return rec
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// flexTime decodes any of dateLayouts. Anything unparseable becomes the zero
// time, which downstream code treats as the year-1 sentinel.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*t = flexTime{}
		return nil
	}
	*t = flexTime(parseDate(s))
	return nil
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// flexString accepts strings, numbers and null.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if isJSONKind(b, '"') {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = flexString(n.String())
	return nil
}

// flexFloat accepts numbers, numeric strings and null (as 0). Anything else
// decodes as 0 and sets invalid instead of failing the whole line.
type flexFloat struct {
	value   float64
	invalid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	v, _, err := decodeNumber(b)
	*f = flexFloat{value: v, invalid: err != nil}
	return nil
}

// flexInt is like flexFloat for integer codes such as status.
type flexInt struct {
	value   int
	invalid bool
}

func (i *flexInt) UnmarshalJSON(b []byte) error {
	v, _, err := decodeNumber(b)
	*i = flexInt{value: int(v), invalid: err != nil}
	return nil
}

// flexAmount accepts { "value": n }, a bare number, a numeric string or null.
// Unparseable values count as absent.
type flexAmount struct {
	value   float64
	present bool
	invalid bool
}

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	if isJSONKind(b, '{') {
		var wrapped struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return err
		}
		if wrapped.Value == nil {
			*a = flexAmount{}
			return nil
		}
		b = wrapped.Value
	}
	v, ok, err := decodeNumber(b)
	if err != nil {
		*a = flexAmount{invalid: true}
		return nil
	}
	*a = flexAmount{value: v, present: ok}
	return nil
}

// flexCategory accepts { "name": s } or a plain string.
type flexCategory struct {
	name string
}

func (c *flexCategory) UnmarshalJSON(b []byte) error {
	if isJSONKind(b, '{') {
		var wrapped struct {
			Name flexString `json:"name"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return err
		}
		c.name = string(wrapped.Name)
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	c.name = string(s)
	return nil
}

// decodeNumber returns ok=false for null and empty strings.
func decodeNumber(b []byte) (float64, bool, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, false, nil
	}
	if isJSONKind(b, '"') {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false, nil
		}
		v, err := parseDecimal(s)
		if err != nil {
			return 0, false, err
		}
		return v, true, nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// parseDecimal accepts a single comma as decimal separator ("12,5"). Any other
// comma use is ambiguous with thousands grouping ("1,234") and is rejected.
func parseDecimal(s string) (float64, error) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		if strings.Count(s, ",") > 1 || strings.Contains(s, ".") || len(s)-i-1 == 3 {
			return 0, fmt.Errorf("ambiguous number %q", s)
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", s, err)
	}
	return v, nil
}
