package filestore

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

type validatorErrors = playground.ValidationErrors

type inputDocument struct {
	Daily []dailyEntry `json:"daily"`
}

// dailyEntry accepts the documents written by older versions of the batch:
// counts may be missing, null or stored as strings.
type dailyEntry struct {
	Date text    `json:"date"`
	Work *number `json:"work"`
	Err  *number `json:"err"`
	MTBI *number `json:"mtbi"`
}

type normalizedEntry struct {
	Date string   `validate:"required,datetime=2006-01-02"`
	Work *int64   `validate:"omitnil,gte=0"`
	Err  *int64   `validate:"omitnil,gte=0"`
	MTBI *float64 `validate:"omitnil,gte=0"`
}

func (e dailyEntry) normalize() normalizedEntry {
	return normalizedEntry{
		Date: strings.TrimSpace(string(e.Date)),
		Work: e.Work.count(),
		Err:  e.Err.count(),
		MTBI: e.MTBI.float(),
	}
}

type outputDocument struct {
	Daily   []dailyOutput  `json:"daily"`
	Weekly  []periodOutput `json:"weekly"`
	Monthly []periodOutput `json:"monthly"`
}

type dailyOutput struct {
	Date string  `json:"date"`
	Work *int64  `json:"work,omitempty"`
	Err  *int64  `json:"err,omitempty"`
	MTBI float64 `json:"mtbi"`
}

type periodOutput struct {
	Label string  `json:"label"`
	Work  int64   `json:"work"`
	Err   int64   `json:"err"`
	MTBI  float64 `json:"mtbi"`
}

type text string

func (t *text) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		*t = ""
		return nil
	}
	*t = text(value)
	return nil
}

// number never fails to decode: values which are not numbers are flagged
// as invalid.
type number struct {
	value float64
	valid bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	var value float64
	if err := json.Unmarshal(data, &value); err == nil {
		n.value = value
		n.valid = true
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil
	}
	n.value = parsed
	n.valid = true
	return nil
}

func (n *number) float() *float64 {
	if n == nil || !n.valid {
		return nil
	}
	value := n.value
	return &value
}

func (n *number) count() *int64 {
	if n == nil || !n.valid {
		return nil
	}
	value := int64(math.Round(n.value))
	return &value
}
