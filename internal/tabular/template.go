package tabular

import (
	"bytes"
	"encoding/csv"
)

// TemplateColumns is the canonical column vocabulary for the downloadable
// import template. The header reconciler's synonym table must agree with it.
var TemplateColumns = []string{
	"property_street",
	"property_city",
	"property_state",
	"property_zip",
	"property_county",
	"property_type",
	"current_status",
	"year_built",
	"square_feet",
	"lot_size",
	"bedrooms",
	"bathrooms",
	"company_name",
	"first_name",
	"last_name",
	"email",
	"phone",
	"mailing_address",
	"mailing_city",
	"mailing_state",
	"mailing_zip",
	"last_sale_price",
	"last_sale_date",
	"estimated_value",
	"lead_temperature",
	"lead_source",
	"lead_status",
	"notes",
}

var templateExampleRow = []string{
	"123 Main St",
	"Austin",
	"TX",
	"78701",
	"Travis",
	"Single Family",
	"Owner Occupied",
	"1985",
	"1850",
	"0.25 acres",
	"3",
	"2",
	"",
	"Jane",
	"Public",
	"jane@example.com",
	"(512) 555-0142",
	"500 Congress Ave",
	"Austin",
	"TX",
	"78701",
	"245000",
	"2019-06-14",
	"310000",
	"Warm",
	"Direct Mail",
	"New",
	"Met owner at open house",
}

// Template renders the fixed-column CSV skeleton with one example row.
func Template() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(TemplateColumns)
	_ = w.Write(templateExampleRow)
	w.Flush()
	return buf.Bytes()
}
