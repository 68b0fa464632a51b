package geoloc

import "strconv"

// Report is the merged view of the geolocation providers for one target IP.
// ip-api.com fields win when both providers answered.
type Report struct {
	IP       string
	Country  string
	Region   string
	City     string
	Timezone string
	ISP      string
	Org      string
	AS       string
	Lat      float64
	Lon      float64

	// HasCoords marks Lat/Lon as meaningful; (0,0) is a valid coordinate.
	HasCoords bool
}

// MergeReports folds provider responses into one report. Either argument may
// be nil; a fully nil input yields a nil report.
func MergeReports(ipapi *IPAPIResponse, whois *IPWhoisResponse) *Report {
	switch {
	case ipapi != nil:
		return &Report{
			IP:        ipapi.Query,
			Country:   ipapi.Country,
			Region:    ipapi.RegionName,
			City:      ipapi.City,
			Timezone:  ipapi.Timezone,
			ISP:       ipapi.ISP,
			Org:       ipapi.Org,
			AS:        ipapi.AS,
			Lat:       ipapi.Lat,
			Lon:       ipapi.Lon,
			HasCoords: true,
		}
	case whois != nil:
		r := &Report{
			IP:        whois.IP,
			Country:   whois.Country,
			Region:    whois.Region,
			City:      whois.City,
			Timezone:  whois.Timezone.ID,
			ISP:       whois.Connection.ISP,
			Org:       whois.Connection.Org,
			Lat:       whois.Latitude,
			Lon:       whois.Longitude,
			HasCoords: true,
		}
		if whois.Connection.ASN != 0 {
			// Match the "AS12345" rendering ip-api uses.
			r.AS = "AS" + strconv.Itoa(whois.Connection.ASN)
		}
		return r
	default:
		return nil
	}
}
