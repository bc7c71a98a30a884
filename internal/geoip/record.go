// In file: internal/geoip/record.go

// Package geoip resolves IP addresses to geolocation records through a
// cache-aside lookup: a Postgres cache is consulted first, and only a miss
// reaches the upstream geolocation API. Every upstream answer is enriched with
// two human-readable descriptions before it is written, so later hits serve the
// stored text verbatim.
package geoip

import "fmt"

// GeoRecord is the record returned to callers. It mirrors the upstream
// attribute set plus the two derived descriptions.
type GeoRecord struct {
	IP                 string  `json:"ip"`
	Network            string  `json:"network"`
	Version            string  `json:"version"`
	City               string  `json:"city"`
	Region             string  `json:"region"`
	RegionCode         string  `json:"region_code"`
	Country            string  `json:"country"`
	CountryName        string  `json:"country_name"`
	CountryCode        string  `json:"country_code"`
	CountryCodeISO3    string  `json:"country_code_iso3"`
	CountryCapital     string  `json:"country_capital"`
	CountryTLD         string  `json:"country_tld"`
	ContinentCode      string  `json:"continent_code"`
	InEU               bool    `json:"in_eu"`
	Postal             string  `json:"postal"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	UTCOffset          string  `json:"utc_offset"`
	CountryCallingCode string  `json:"country_calling_code"`
	Currency           string  `json:"currency"`
	CurrencyName       string  `json:"currency_name"`
	Languages          string  `json:"languages"`
	CountryArea        float64 `json:"country_area"`
	CountryPopulation  int64   `json:"country_population"`
	ASN                string  `json:"asn"`
	Org                string  `json:"org"`

	Description         string `json:"description"`
	DetailedDescription string `json:"detailedDescription"`
}

// storedRecord is the persisted form. Timezone is kept as received from the
// upstream but never leaves this package.
type storedRecord struct {
	GeoRecord
	Timezone string `json:"timezone,omitempty"`
}

// empty reports whether the upstream sent nothing beyond the address itself,
// as with a `{}` or `null` body.
func (s *storedRecord) empty() bool {
	rec := s.GeoRecord
	rec.IP = ""
	return rec == GeoRecord{} && s.Timezone == ""
}

// public strips the fields that are stored but not exposed.
func (s *storedRecord) public() *GeoRecord {
	rec := s.GeoRecord
	return &rec
}

// describe fills both descriptions from the other attributes. It runs once,
// right before the first write.
func (r *GeoRecord) describe() {
	r.Description = fmt.Sprintf("IP %s is located in %s, %s, %s.", r.IP, r.City, r.Region, r.CountryName)
	r.DetailedDescription = fmt.Sprintf(
		"IP %s belongs to the network %s. It is an %s address located in %s, %s (%s), %s (%s). "+
			"The location has the postal code %s and is situated at latitude %v and longitude %v. "+
			"The currency used is %s (%s), and the calling code is %s. The ISP is %s with ASN %s.",
		r.IP, r.Network, r.Version, r.City, r.Region, r.RegionCode, r.CountryName, r.CountryCodeISO3,
		r.Postal, r.Latitude, r.Longitude,
		r.Currency, r.CurrencyName, r.CountryCallingCode, r.Org, r.ASN,
	)
}
