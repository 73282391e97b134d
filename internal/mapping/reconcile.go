// Package mapping reconciles source CSV headers against the canonical target
// fields and holds the per-session, user-editable field mapping.
package mapping

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Ignored marks a source column that is not imported.
const Ignored = "ignored"

// Canonical target field identifiers. These agree with the downloadable
// template vocabulary; the alias fields (FieldPropertyAddress, FieldOwnerName,
// FieldEmailAddress, FieldStatus) are mapping targets that the normalizer
// folds onto their canonical counterparts.
const (
	FieldPropertyStreet  = "property_street"
	FieldPropertyAddress = "property_address"
	FieldPropertyCity    = "property_city"
	FieldPropertyState   = "property_state"
	FieldPropertyZip     = "property_zip"
	FieldPropertyCounty  = "property_county"
	FieldPropertyType    = "property_type"
	FieldCurrentStatus   = "current_status"
	FieldStatus          = "status"
	FieldYearBuilt       = "year_built"
	FieldSquareFeet      = "square_feet"
	FieldLotSize         = "lot_size"
	FieldBedrooms        = "bedrooms"
	FieldBathrooms       = "bathrooms"
	FieldCompanyName     = "company_name"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldOwnerName       = "owner_name"
	FieldEmail           = "email"
	FieldEmailAddress    = "email_address"
	FieldPhone           = "phone"
	FieldMailingAddress  = "mailing_address"
	FieldMailingCity     = "mailing_city"
	FieldMailingState    = "mailing_state"
	FieldMailingZip      = "mailing_zip"
	FieldLastSalePrice   = "last_sale_price"
	FieldLastSaleDate    = "last_sale_date"
	FieldEstimatedValue  = "estimated_value"
	FieldLeadTemperature = "lead_temperature"
	FieldLeadSource      = "lead_source"
	FieldLeadStatus      = "lead_status"
	FieldNotes           = "notes"
)

// synonyms maps normalized header names onto target fields. Unknown headers
// fall through to Ignored, never an error.
var synonyms = map[string]string{
	"property_street":  FieldPropertyStreet,
	"street":           FieldPropertyStreet,
	"address":          FieldPropertyStreet,
	"property_address": FieldPropertyAddress,
	"site_address":     FieldPropertyAddress,

	"property_city": FieldPropertyCity,
	"city":          FieldPropertyCity,
	"town":          FieldPropertyCity,

	"property_state": FieldPropertyState,
	"state":          FieldPropertyState,
	"st":             FieldPropertyState,

	"property_zip": FieldPropertyZip,
	"zip":          FieldPropertyZip,
	"zipcode":      FieldPropertyZip,
	"zip_code":     FieldPropertyZip,
	"postal_code":  FieldPropertyZip,

	"property_county": FieldPropertyCounty,
	"county":          FieldPropertyCounty,

	"property_type": FieldPropertyType,
	"type":          FieldPropertyType,

	"current_status":   FieldCurrentStatus,
	"occupancy":        FieldCurrentStatus,
	"occupancy_status": FieldCurrentStatus,
	"status":           FieldStatus,

	"year_built": FieldYearBuilt,
	"yr_built":   FieldYearBuilt,
	"built":      FieldYearBuilt,

	"square_feet":    FieldSquareFeet,
	"sqft":           FieldSquareFeet,
	"sq_ft":          FieldSquareFeet,
	"square_footage": FieldSquareFeet,

	"lot_size": FieldLotSize,
	"lot":      FieldLotSize,

	"bedrooms": FieldBedrooms,
	"beds":     FieldBedrooms,
	"br":       FieldBedrooms,

	"bathrooms": FieldBathrooms,
	"baths":     FieldBathrooms,
	"ba":        FieldBathrooms,

	"company_name": FieldCompanyName,
	"company":      FieldCompanyName,

	"first_name": FieldFirstName,
	"firstname":  FieldFirstName,
	"last_name":  FieldLastName,
	"lastname":   FieldLastName,

	"owner_name": FieldOwnerName,
	"owner":      FieldOwnerName,
	"name":       FieldOwnerName,
	"full_name":  FieldOwnerName,

	"email":         FieldEmail,
	"e_mail":        FieldEmail,
	"email_address": FieldEmailAddress,

	"phone":        FieldPhone,
	"phone_number": FieldPhone,
	"telephone":    FieldPhone,

	"mailing_address": FieldMailingAddress,
	"mailing_street":  FieldMailingAddress,
	"mailing_city":    FieldMailingCity,
	"mailing_state":   FieldMailingState,
	"mailing_zip":     FieldMailingZip,

	"last_sale_price": FieldLastSalePrice,
	"sale_price":      FieldLastSalePrice,
	"last_sale_date":  FieldLastSaleDate,
	"sale_date":       FieldLastSaleDate,

	"estimated_value": FieldEstimatedValue,
	"est_value":       FieldEstimatedValue,
	"arv":             FieldEstimatedValue,

	"lead_temperature": FieldLeadTemperature,
	"temperature":      FieldLeadTemperature,
	"temp":             FieldLeadTemperature,

	"lead_source": FieldLeadSource,
	"source":      FieldLeadSource,

	"lead_status": FieldLeadStatus,

	"notes":    FieldNotes,
	"note":     FieldNotes,
	"comments": FieldNotes,
}

// asciiFold strips combining marks so accented headers still hit the table.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader lowercases a header, folds accents, and collapses internal
// whitespace and separator runs to single underscores.
func NormalizeHeader(h string) string {
	folded, _, err := transform.String(asciiFold, h)
	if err != nil {
		folded = h
	}
	lower := strings.ToLower(strings.TrimSpace(folded))
	var b strings.Builder
	sep := false
	for _, r := range lower {
		switch {
		case r == ' ' || r == '\t' || r == '-' || r == '_' || r == '.' || r == '/':
			sep = true
		default:
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Reconcile proposes an initial mapping from source column names to target
// fields. It never fails: unknown headers map to Ignored, and when nothing
// resolves to the required street field the first header containing
// "address" or "street" is force-mapped to it. The result is advisory; the
// caller may overwrite any entry before normalization runs.
func Reconcile(headers []string) map[string]string {
	m := make(map[string]string, len(headers))
	streetMapped := false
	for _, h := range headers {
		target, ok := synonyms[NormalizeHeader(h)]
		if !ok {
			target = Ignored
		}
		m[h] = target
		if target == FieldPropertyStreet {
			streetMapped = true
		}
	}

	if !streetMapped {
		for _, h := range headers {
			if m[h] != Ignored {
				continue
			}
			lower := strings.ToLower(h)
			if strings.Contains(lower, "address") || strings.Contains(lower, "street") {
				m[h] = FieldPropertyStreet
				break
			}
		}
	}

	return m
}

// Synonyms returns a copy of the static header synonym table.
func Synonyms() map[string]string {
	out := make(map[string]string, len(synonyms))
	for k, v := range synonyms {
		out[k] = v
	}
	return out
}
