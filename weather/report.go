package weather

import (
	"fmt"
	"strings"
)

// Report renders f for a voice assistant. Cached reports say so in the
// first line so the model can mention data age when asked.
func Report(f Forecast, cached bool) string {
	var b strings.Builder
	source := "live data"
	if cached {
		source = "cached data"
	}

	fmt.Fprintf(&b, "[%s] Weather for %s", source, displayName(f.City))
	if f.Updated != "" {
		fmt.Fprintf(&b, " (updated %s)", f.Updated)
	}
	b.WriteString("\n\n")

	now := f.Now
	if now.Text != "" || now.Temp != "" {
		fmt.Fprintf(&b, "Now: %s, %s", orDash(now.Text), f.Temperature())
		if now.FeelsLike != "" {
			fmt.Fprintf(&b, " (feels like %s°C)", now.FeelsLike)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  · wind: %s\n", f.Wind())
		fmt.Fprintf(&b, "  · humidity: %s\n", f.Humidity())
		if now.Precip != "" {
			fmt.Fprintf(&b, "  · precipitation: %smm\n", now.Precip)
		}
	}

	if len(f.Days) > 0 {
		fmt.Fprintf(&b, "\nNext %d days:\n", len(f.Days))
		for _, d := range f.Days {
			text := d.TextDay
			if d.TextNight != "" && d.TextNight != d.TextDay {
				text += " to " + d.TextNight
			}
			fmt.Fprintf(&b, "%s: %s, %s~%s°C\n", d.Date, orDash(text), d.TempMin, d.TempMax)
		}
	}
	b.WriteString("\n(Ask about a specific date for more detail.)")
	return b.String()
}

func displayName(c City) string {
	parts := []string{c.Name}
	if c.Adm2 != "" && c.Adm2 != c.Name {
		parts = append(parts, c.Adm2)
	}
	if c.Adm1 != "" && c.Adm1 != c.Adm2 && c.Adm1 != c.Name {
		parts = append(parts, c.Adm1)
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
