package dedup

import (
	"time"

	"github.com/propdesk/import-cli/internal/model"
)

// Merge overlays the incoming record's non-empty fields onto the existing
// stored record and stamps the updating actor. The result is a new record;
// neither input is mutated.
func Merge(existing, incoming *model.PropertyRecord, actor model.Actor, now time.Time) *model.PropertyRecord {
	merged := *existing

	mergeStr(&merged.PropertyStreet, incoming.PropertyStreet)
	mergeStr(&merged.PropertyCity, incoming.PropertyCity)
	mergeStr(&merged.PropertyState, incoming.PropertyState)
	mergeStr(&merged.PropertyZip, incoming.PropertyZip)
	mergeStr(&merged.PropertyCounty, incoming.PropertyCounty)
	mergeStr(&merged.PropertyType, incoming.PropertyType)
	if incoming.CurrentStatus != "" {
		merged.CurrentStatus = incoming.CurrentStatus
	}

	mergeNum(&merged.YearBuilt, incoming.YearBuilt)
	mergeNum(&merged.SquareFeet, incoming.SquareFeet)
	mergeStr(&merged.LotSize, incoming.LotSize)
	mergeNum(&merged.Bedrooms, incoming.Bedrooms)
	mergeNum(&merged.Bathrooms, incoming.Bathrooms)

	mergeStr(&merged.CompanyName, incoming.CompanyName)
	mergeStr(&merged.FirstName, incoming.FirstName)
	mergeStr(&merged.LastName, incoming.LastName)
	mergeStr(&merged.Email, incoming.Email)
	mergeStr(&merged.Phone, incoming.Phone)
	mergeStr(&merged.MailingAddress, incoming.MailingAddress)
	mergeStr(&merged.MailingCity, incoming.MailingCity)
	mergeStr(&merged.MailingState, incoming.MailingState)
	mergeStr(&merged.MailingZip, incoming.MailingZip)

	mergeNum(&merged.LastSalePrice, incoming.LastSalePrice)
	mergeStr(&merged.LastSaleDate, incoming.LastSaleDate)
	mergeNum(&merged.EstimatedValue, incoming.EstimatedValue)

	if incoming.LeadTemperature != "" {
		merged.LeadTemperature = incoming.LeadTemperature
	}
	mergeStr(&merged.LeadSource, incoming.LeadSource)
	mergeStr(&merged.LeadStatus, incoming.LeadStatus)

	if len(incoming.Notes) > 0 {
		merged.Notes = append(append([]model.Note{}, existing.Notes...), incoming.Notes...)
	}

	merged.UpdatedBy = actor.UserID
	merged.UpdatedAt = now
	return &merged
}

func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergeNum(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
