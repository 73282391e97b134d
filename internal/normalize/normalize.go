// Package normalize turns one raw row plus a field mapping into a typed
// property record, or a list of validation messages. Normalize is a pure
// function of its inputs so rows can be processed independently and in
// parallel.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/propdesk/import-cli/internal/mapping"
	"github.com/propdesk/import-cli/internal/model"
	"github.com/propdesk/import-cli/internal/tabular"
)

const (
	errStreetRequired     = "Property address/street is required"
	errInvalidPhone       = "Invalid phone number format"
	errInvalidEmail       = "Invalid email format"
	errInvalidTemperature = "Invalid lead temperature value"
)

var (
	phonePattern = regexp.MustCompile(`^[0-9+\-() ]+$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// numericFields lists the mapping targets coerced to numbers, in validation
// order.
var numericFields = []string{
	mapping.FieldSquareFeet,
	mapping.FieldBedrooms,
	mapping.FieldBathrooms,
	mapping.FieldYearBuilt,
	mapping.FieldEstimatedValue,
	mapping.FieldLastSalePrice,
}

// Normalize validates and coerces one raw row under the given mapping. The
// clock is injected so results are deterministic for identical inputs. All
// applicable errors are collected; a later check never suppresses an earlier
// one. On any error the record is nil.
func Normalize(row tabular.Row, m map[string]string, now time.Time) (*model.PropertyRecord, []string) {
	values := collectValues(row, m)
	var errs []string

	// Required street, backfilled from the address alias when present.
	if values[mapping.FieldPropertyStreet] == "" && values[mapping.FieldPropertyAddress] != "" {
		values[mapping.FieldPropertyStreet] = values[mapping.FieldPropertyAddress]
	}
	if values[mapping.FieldPropertyStreet] == "" {
		errs = append(errs, errStreetRequired)
	}

	// Contact fields. The email alias backfills before validation so the
	// canonical value is what gets checked.
	if values[mapping.FieldEmail] == "" && values[mapping.FieldEmailAddress] != "" {
		values[mapping.FieldEmail] = values[mapping.FieldEmailAddress]
	}
	if v := values[mapping.FieldPhone]; v != "" && !phonePattern.MatchString(v) {
		errs = append(errs, errInvalidPhone)
	}
	if v := values[mapping.FieldEmail]; v != "" && !emailPattern.MatchString(v) {
		errs = append(errs, errInvalidEmail)
	}

	// Combined owner name splits only when both halves are empty.
	if owner := values[mapping.FieldOwnerName]; owner != "" &&
		values[mapping.FieldFirstName] == "" && values[mapping.FieldLastName] == "" {
		first, last := splitOwnerName(owner)
		values[mapping.FieldFirstName] = first
		values[mapping.FieldLastName] = last
	}

	// Numeric coercion.
	numbers := make(map[string]*float64, len(numericFields))
	for _, field := range numericFields {
		v := values[field]
		if v == "" {
			continue
		}
		n, err := parseNumber(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Invalid numeric value for %s", field))
			continue
		}
		numbers[field] = &n
	}

	// Occupancy status is best-effort: an unresolvable value is left unset,
	// never a row error. A bare "status" alias backfills only when the
	// canonical column carried nothing.
	statusInput := values[mapping.FieldCurrentStatus]
	if statusInput == "" {
		statusInput = values[mapping.FieldStatus]
	}
	var status model.OccupancyStatus
	if statusInput != "" {
		if resolved, ok := model.ResolveOccupancyStatus(statusInput); ok {
			status = resolved
		}
	}

	// Lead temperature is strict: an unresolvable value fails the row.
	var temperature model.LeadTemperature
	if v := values[mapping.FieldLeadTemperature]; v != "" {
		resolved, ok := model.ResolveLeadTemperature(v)
		if !ok {
			errs = append(errs, errInvalidTemperature)
		} else {
			temperature = resolved
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	rec := &model.PropertyRecord{
		PropertyStreet:  values[mapping.FieldPropertyStreet],
		PropertyCity:    values[mapping.FieldPropertyCity],
		PropertyState:   values[mapping.FieldPropertyState],
		PropertyZip:     values[mapping.FieldPropertyZip],
		PropertyCounty:  values[mapping.FieldPropertyCounty],
		PropertyType:    values[mapping.FieldPropertyType],
		CurrentStatus:   status,
		YearBuilt:       numbers[mapping.FieldYearBuilt],
		SquareFeet:      numbers[mapping.FieldSquareFeet],
		LotSize:         values[mapping.FieldLotSize],
		Bedrooms:        numbers[mapping.FieldBedrooms],
		Bathrooms:       numbers[mapping.FieldBathrooms],
		CompanyName:     values[mapping.FieldCompanyName],
		FirstName:       values[mapping.FieldFirstName],
		LastName:        values[mapping.FieldLastName],
		Email:           values[mapping.FieldEmail],
		Phone:           values[mapping.FieldPhone],
		MailingAddress:  values[mapping.FieldMailingAddress],
		MailingCity:     values[mapping.FieldMailingCity],
		MailingState:    values[mapping.FieldMailingState],
		MailingZip:      values[mapping.FieldMailingZip],
		LastSalePrice:   numbers[mapping.FieldLastSalePrice],
		LastSaleDate:    values[mapping.FieldLastSaleDate],
		EstimatedValue:  numbers[mapping.FieldEstimatedValue],
		LeadTemperature: temperature,
		LeadSource:      values[mapping.FieldLeadSource],
		LeadStatus:      values[mapping.FieldLeadStatus],
	}

	if text := values[mapping.FieldNotes]; text != "" {
		rec.Notes = []model.Note{{Text: text, CreatedAt: now, UpdatedAt: now}}
	}

	return rec, nil
}

// collectValues projects the raw row onto target fields. The first non-empty
// value wins when two source columns map to the same target.
func collectValues(row tabular.Row, m map[string]string) map[string]string {
	values := make(map[string]string)
	for _, col := range sortedColumns(row, m) {
		target := m[col]
		if target == "" || target == mapping.Ignored {
			continue
		}
		v := row.Get(col)
		if v == "" {
			continue
		}
		if _, exists := values[target]; !exists {
			values[target] = v
		}
	}
	return values
}

// sortedColumns returns the mapped columns of the row in a stable order so
// first-wins collection is deterministic regardless of map iteration.
func sortedColumns(row tabular.Row, m map[string]string) []string {
	cols := make([]string, 0, len(row.Values))
	for col := range row.Values {
		if _, ok := m[col]; ok {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	return cols
}

// splitOwnerName splits a combined name on whitespace: first token becomes
// the first name, the rest join as the last name. A single token is treated
// entirely as the last name.
func splitOwnerName(owner string) (first, last string) {
	parts := strings.Fields(owner)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// parseNumber parses a numeric cell, tolerating currency symbols and
// thousands separators.
func parseNumber(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return strconv.ParseFloat(cleaned, 64)
}
