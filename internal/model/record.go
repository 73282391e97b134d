// Package model defines the core types shared across the import pipeline.
package model

import (
	"strings"
	"time"
)

// OccupancyStatus is the closed set of property occupancy states.
type OccupancyStatus string

const (
	StatusUnknown           OccupancyStatus = "Unknown"
	StatusOwnerOccupied     OccupancyStatus = "Owner Occupied"
	StatusTenantOccupied    OccupancyStatus = "Tenant Occupied"
	StatusVacant            OccupancyStatus = "Vacant"
	StatusUnderConstruction OccupancyStatus = "Under Construction"
	StatusForSale           OccupancyStatus = "For Sale"
	StatusForRent           OccupancyStatus = "For Rent"
)

// occupancySynonyms maps normalized free-text status values onto the closed set.
var occupancySynonyms = map[string]OccupancyStatus{
	"unknown":            StatusUnknown,
	"owner occupied":     StatusOwnerOccupied,
	"owner-occupied":     StatusOwnerOccupied,
	"owner":              StatusOwnerOccupied,
	"occupied by owner":  StatusOwnerOccupied,
	"tenant occupied":    StatusTenantOccupied,
	"tenant-occupied":    StatusTenantOccupied,
	"tenant":             StatusTenantOccupied,
	"rented":             StatusTenantOccupied,
	"vacant":             StatusVacant,
	"empty":              StatusVacant,
	"under construction": StatusUnderConstruction,
	"construction":       StatusUnderConstruction,
	"for sale":           StatusForSale,
	"listed":             StatusForSale,
	"for rent":           StatusForRent,
}

// ResolveOccupancyStatus resolves a free-text status value onto the closed
// occupancy set. The lookup is case-insensitive and whitespace-trimmed.
func ResolveOccupancyStatus(s string) (OccupancyStatus, bool) {
	v, ok := occupancySynonyms[strings.ToLower(strings.TrimSpace(s))]
	return v, ok
}

// LeadTemperature is the closed set of lead temperature values.
type LeadTemperature string

const (
	TempCold LeadTemperature = "Cold"
	TempWarm LeadTemperature = "Warm"
	TempHot  LeadTemperature = "Hot"
	TempDead LeadTemperature = "Dead"
)

var temperatureSynonyms = map[string]LeadTemperature{
	"cold": TempCold,
	"cool": TempCold,
	"warm": TempWarm,
	"hot":  TempHot,
	"dead": TempDead,
	"lost": TempDead,
}

// ResolveLeadTemperature resolves a free-text temperature value onto the
// closed set. Unlike occupancy status, callers treat a failed resolution of a
// non-empty value as a validation error.
func ResolveLeadTemperature(s string) (LeadTemperature, bool) {
	v, ok := temperatureSynonyms[strings.ToLower(strings.TrimSpace(s))]
	return v, ok
}

// Note is one freeform note attached to a property record.
type Note struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PropertyRecord is the typed, validated representation of one imported row.
// A record that passed validation always has a non-empty PropertyStreet.
type PropertyRecord struct {
	ID    string `json:"id,omitempty"`
	OrgID string `json:"org_id,omitempty"`

	// Property location
	PropertyStreet string          `json:"property_street"`
	PropertyCity   string          `json:"property_city,omitempty"`
	PropertyState  string          `json:"property_state,omitempty"`
	PropertyZip    string          `json:"property_zip,omitempty"`
	PropertyCounty string          `json:"property_county,omitempty"`
	PropertyType   string          `json:"property_type,omitempty"`
	CurrentStatus  OccupancyStatus `json:"current_status,omitempty"`

	// Structural attributes
	YearBuilt  *float64 `json:"year_built,omitempty"`
	SquareFeet *float64 `json:"square_feet,omitempty"`
	LotSize    string   `json:"lot_size,omitempty"`
	Bedrooms   *float64 `json:"bedrooms,omitempty"`
	Bathrooms  *float64 `json:"bathrooms,omitempty"`

	// Owner identity
	CompanyName    string `json:"company_name,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	MailingAddress string `json:"mailing_address,omitempty"`
	MailingCity    string `json:"mailing_city,omitempty"`
	MailingState   string `json:"mailing_state,omitempty"`
	MailingZip     string `json:"mailing_zip,omitempty"`

	// Sale / valuation
	LastSalePrice  *float64 `json:"last_sale_price,omitempty"`
	LastSaleDate   string   `json:"last_sale_date,omitempty"`
	EstimatedValue *float64 `json:"estimated_value,omitempty"`

	// Lead metadata
	LeadTemperature LeadTemperature `json:"lead_temperature,omitempty"`
	LeadSource      string          `json:"lead_source,omitempty"`
	LeadStatus      string          `json:"lead_status,omitempty"`

	Notes []Note `json:"notes,omitempty"`

	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
