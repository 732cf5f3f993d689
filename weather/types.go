package weather

import "time"

// City is a resolved location.
type City struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Adm1    string `json:"adm1,omitempty"`
	Adm2    string `json:"adm2,omitempty"`
	Country string `json:"country,omitempty"`
	Lat     string `json:"lat,omitempty"`
	Lon     string `json:"lon,omitempty"`
	TZ      string `json:"tz,omitempty"`
	Link    string `json:"fxLink,omitempty"`
}

// Current is the latest observation.
type Current struct {
	ObsTime   string `json:"obsTime"`
	Temp      string `json:"temp"`
	FeelsLike string `json:"feelsLike"`
	Text      string `json:"text"`
	WindDir   string `json:"windDir"`
	WindScale string `json:"windScale"`
	Humidity  string `json:"humidity"`
	Precip    string `json:"precip,omitempty"`
	Pressure  string `json:"pressure,omitempty"`
	Vis       string `json:"vis,omitempty"`
}

// Day is one day of the forecast.
type Day struct {
	Date         string `json:"fxDate"`
	TempMax      string `json:"tempMax"`
	TempMin      string `json:"tempMin"`
	TextDay      string `json:"textDay"`
	TextNight    string `json:"textNight"`
	WindDirDay   string `json:"windDirDay"`
	WindScaleDay string `json:"windScaleDay"`
	Humidity     string `json:"humidity"`
	Precip       string `json:"precip"`
	UVIndex      string `json:"uvIndex"`
}

// Forecast is the cached unit for one city: the current observation plus
// the daily outlook.
type Forecast struct {
	City      City      `json:"city"`
	Now       Current   `json:"now"`
	Days      []Day     `json:"days"`
	Updated   string    `json:"updated,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Today returns the first forecast day.
func (f Forecast) Today() (Day, bool) {
	if len(f.Days) == 0 {
		return Day{}, false
	}
	return f.Days[0], true
}

// Temperature describes the current temperature, falling back to today's
// range when no observation is present.
func (f Forecast) Temperature() string {
	if f.Now.Temp != "" {
		return f.Now.Temp + "°C"
	}
	if d, ok := f.Today(); ok && d.TempMin != "" && d.TempMax != "" {
		return d.TempMin + "~" + d.TempMax + "°C"
	}
	return "unknown"
}

// Wind describes the current wind.
func (f Forecast) Wind() string {
	switch {
	case f.Now.WindDir != "" && f.Now.WindScale != "":
		return f.Now.WindDir + " level " + f.Now.WindScale
	case f.Now.WindDir != "":
		return f.Now.WindDir
	}
	return "light breeze"
}

// Humidity describes the current relative humidity.
func (f Forecast) Humidity() string {
	if f.Now.Humidity != "" {
		return f.Now.Humidity + "%"
	}
	return "moderate"
}

// DaySummary is the archived form of one forecast day.
type DaySummary struct {
	Date    string `json:"date"`
	Weather string `json:"weather"`
	High    string `json:"high_temp"`
	Low     string `json:"low_temp"`
}

// Record is one archived observation per location and date.
type Record struct {
	Location    string       `json:"location"`
	Date        string       `json:"weather_date"`
	Current     string       `json:"current_weather"`
	Temperature string       `json:"temperature"`
	Humidity    string       `json:"humidity"`
	Wind        string       `json:"wind"`
	Forecast    []DaySummary `json:"forecast"`
	Source      string       `json:"source"`
	CreatedAt   time.Time    `json:"created_time"`
	UpdatedAt   time.Time    `json:"updated_time"`
}

// RecordDays is how many forecast days an archived record keeps.
const RecordDays = 5

// NewRecord builds the archived form of f as observed at now.
func NewRecord(f Forecast, now time.Time, source string) Record {
	rec := Record{
		Location:    f.City.Name,
		Date:        now.Format(time.DateOnly),
		Current:     f.Now.Text,
		Temperature: f.Temperature(),
		Humidity:    f.Humidity(),
		Wind:        f.Wind(),
		Source:      source,
	}
	if rec.Current == "" {
		if d, ok := f.Today(); ok {
			rec.Current = d.TextDay
		}
	}
	for i, d := range f.Days {
		if i == RecordDays {
			break
		}
		rec.Forecast = append(rec.Forecast, DaySummary{Date: d.Date, Weather: d.TextDay, High: d.TempMax, Low: d.TempMin})
	}
	return rec
}
