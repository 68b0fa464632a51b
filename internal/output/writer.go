// Package output renders the console report.
package output

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"geointel/internal/geoloc"
	"geointel/internal/intel"
)

const banner = `
                     .__        __         .__
   ____   ____  ____ |__| _____/  |_  ____ |  |
  / ___\_/ __ \/  _ \|  |/    \   __\/ __ \|  |
 / /_/  >  ___(  <_> )  |   |  \  | \  ___/|  |__
 \___  / \___  >____/|__|___|  /__|  \___  >____/
/_____/      \/              \/          \/
`

// PrintBanner writes the startup banner.
func PrintBanner(w io.Writer) {
	fmt.Fprintf(w, "%s\n", banner)
	fmt.Fprintln(w, "      GeoIntel: Proxy-Assisted IP Intelligence")
	fmt.Fprintln(w)
}

// PrintRefreshSummary reports the outcome of one acquisition cycle.
func PrintRefreshSummary(w io.Writer, stats intel.RefreshStats) {
	fmt.Fprintln(w, "Proxy acquisition summary:")
	fmt.Fprintf(w, "  Scraped candidates:  %d\n", stats.Scraped)
	fmt.Fprintf(w, "  Verified:            %d\n", stats.Verified)
	fmt.Fprintf(w, "  Failed:              %d\n", stats.Scraped-stats.Verified)
	fmt.Fprintf(w, "  Pool size:           %d\n", stats.PoolSize)
	fmt.Fprintln(w)
}

// PrintReport renders the merged geolocation report as a field/value table.
// geocode may be nil.
func PrintReport(w io.Writer, report *geoloc.Report, geocode *geoloc.GeocodeResult) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Field\tValue")
	fmt.Fprintf(tw, "IP\t%s\n", orNA(report.IP))
	fmt.Fprintf(tw, "Country\t%s\n", orNA(report.Country))
	fmt.Fprintf(tw, "Region\t%s\n", orNA(report.Region))
	fmt.Fprintf(tw, "City\t%s\n", orNA(report.City))
	fmt.Fprintf(tw, "Timezone\t%s\n", orNA(report.Timezone))
	fmt.Fprintf(tw, "ISP\t%s\n", orNA(report.ISP))
	fmt.Fprintf(tw, "Org\t%s\n", orNA(report.Org))
	fmt.Fprintf(tw, "AS\t%s\n", orNA(report.AS))
	if report.HasCoords {
		fmt.Fprintf(tw, "Latitude\t%s\n", strconv.FormatFloat(report.Lat, 'f', -1, 64))
		fmt.Fprintf(tw, "Longitude\t%s\n", strconv.FormatFloat(report.Lon, 'f', -1, 64))
	}

	if geocode != nil {
		fmt.Fprintln(tw, "\t")
		fmt.Fprintf(tw, "Formatted\t%s\n", orNA(geocode.Formatted))
		fmt.Fprintf(tw, "State/Region\t%s\n", orNA(geocode.State))
		fmt.Fprintf(tw, "Postal Code\t%s\n", orNA(geocode.PostalCode))
		fmt.Fprintf(tw, "Confidence\t%d\n", geocode.Confidence)
	}

	tw.Flush()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
