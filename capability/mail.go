package capability

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/jonwraymond/toolhub/dispatch"
	"github.com/jonwraymond/toolhub/observe"
	"github.com/jonwraymond/toolhub/weather"
)

// MailTemplate renders a weather email. Fields: Name, Date, Location,
// Current, Temperature, Wind, Humidity, Forecast, Clothing, Transport and
// Outdoor.
var MailTemplate = template.Must(template.New("weather-mail").Parse(`Hi {{.Name}},

Here is the weather for {{.Location}} on {{.Date}}.

Now: {{.Current}}, {{.Temperature}}
Wind: {{.Wind}}
Humidity: {{.Humidity}}

Coming days:
{{range .Forecast}}  {{.Date}}: {{.Weather}}, {{.Low}}~{{.High}}°C
{{end}}
Suggestions:
  Clothing: {{.Clothing}}
  Getting around: {{.Transport}}
  Outdoors: {{.Outdoor}}
`))

type mailData struct {
	Name        string
	Date        string
	Location    string
	Current     string
	Temperature string
	Wind        string
	Humidity    string
	Forecast    []weather.DaySummary
	Advice
}

func (w *weatherCapabilities) emailDescriptor() dispatch.Descriptor {
	return dispatch.Descriptor{
		Name:       SendEmail,
		Convention: dispatch.ContextBound,
		Definition: describe(SendEmail,
			"Email a contact the weather and travel suggestions for a place. "+
				"Use when the user asks to send or share the weather with someone.",
			object(map[string]any{
				"recipient_alias": str("Contact alias as configured, such as mom or boss."),
				"location":        str("Place name. Omit to use the default location."),
				"lang":            str("Language code of the user. Default zh_CN."),
			}, "recipient_alias"),
		),
		Bound: w.email,
	}
}

func (w *weatherCapabilities) email(ctx context.Context, _ dispatch.Session, args dispatch.Arguments) (*dispatch.Response, error) {
	if w.deps.Mailer == nil {
		return dispatch.ReqLLM("Email is not configured on this assistant."), nil
	}

	alias := args.TextOr("recipient_alias", "")
	to, ok := w.deps.Contacts[alias]
	if !ok {
		known := slices.Sorted(maps.Keys(w.deps.Contacts))
		return dispatch.ReqLLM(fmt.Sprintf("I don't know a contact called %q. Configured contacts: %s.",
			alias, strings.Join(known, ", "))), nil
	}

	location := w.location(args)
	if location == "" {
		return dispatch.ReqLLM("Which place's weather should I send?"), nil
	}
	res, err := w.forecast(ctx, location, args.TextOr("lang", "zh_CN"), false)
	if err != nil {
		return w.failure(ctx, location, err), nil
	}

	now := w.deps.Now()
	rec := weather.NewRecord(res.forecast, now, w.deps.Source)
	data := mailData{
		Name:        alias,
		Date:        now.Format("January 2, 2006"),
		Location:    rec.Location,
		Current:     rec.Current,
		Temperature: rec.Temperature,
		Wind:        rec.Wind,
		Humidity:    rec.Humidity,
		Forecast:    rec.Forecast,
		Advice:      Advise(res.forecast),
	}
	var body strings.Builder
	if err := MailTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render weather mail: %w", err)
	}

	msg := Message{
		To:      to,
		ToName:  alias,
		Subject: fmt.Sprintf("Weather for %s, %s", rec.Location, data.Date),
		Body:    body.String(),
	}
	if err := w.deps.Mailer.Send(ctx, msg); err != nil {
		w.deps.Logger.Error(ctx, "sending weather mail failed", observe.F("recipient", alias), observe.Err(err))
		return dispatch.ReqLLM("Sending the email failed. The mail server may be unreachable; please try again later."), nil
	}

	w.deps.Logger.Info(ctx, "weather mail sent", observe.F("recipient", alias), observe.F("location", rec.Location))
	return dispatch.ReqLLM(fmt.Sprintf("Email sent. %s now has the weather and travel suggestions for %s.",
		alias, rec.Location)), nil
}

// Advice is a set of short suggestions derived from a forecast.
type Advice struct {
	Clothing  string
	Transport string
	Outdoor   string
}

// Advise derives suggestions from the current temperature and conditions.
func Advise(f weather.Forecast) Advice {
	a := Advice{
		Clothing:  "Dress in layers you can adjust.",
		Transport: "Public transport or walking both work well.",
		Outdoor:   "A good day for light outdoor activity.",
	}

	temp, err := strconv.ParseFloat(f.Now.Temp, 64)
	if err != nil {
		if d, ok := f.Today(); ok {
			temp, err = strconv.ParseFloat(d.TempMax, 64)
		}
	}
	if err == nil {
		switch {
		case temp < 0:
			a.Clothing = "Wear a heavy coat, gloves and a hat."
		case temp < 10:
			a.Clothing = "Wear a warm jacket."
		case temp < 20:
			a.Clothing = "A light jacket or sweater is enough."
		case temp < 28:
			a.Clothing = "Short sleeves with a thin layer for the evening."
		default:
			a.Clothing = "Wear light, breathable clothes and stay hydrated."
			a.Outdoor = "Avoid strenuous activity in the midday heat."
		}
	}

	text := strings.ToLower(f.Now.Text)
	if text == "" {
		if d, ok := f.Today(); ok {
			text = strings.ToLower(d.TextDay)
		}
	}
	switch {
	case strings.Contains(text, "snow"), strings.Contains(text, "雪"):
		a.Transport = "Roads may be slippery; allow extra travel time."
		a.Outdoor = "Keep outdoor time short and watch for ice."
	case strings.Contains(text, "rain"), strings.Contains(text, "storm"), strings.Contains(text, "雨"):
		a.Transport = "Take an umbrella and prefer public transport."
		a.Outdoor = "Indoor activities are a better choice today."
	case strings.Contains(text, "haze"), strings.Contains(text, "fog"), strings.Contains(text, "霾"), strings.Contains(text, "雾"):
		a.Transport = "Visibility is low; drive carefully."
		a.Outdoor = "Limit time outdoors and consider a mask."
	}
	return a
}
