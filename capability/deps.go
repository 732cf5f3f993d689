package capability

import (
	"context"
	"time"

	"github.com/jonwraymond/toolhub/cache"
	"github.com/jonwraymond/toolhub/observe"
	"github.com/jonwraymond/toolhub/weather"
)

// WeatherSource resolves locations and fetches forecasts.
type WeatherSource interface {
	LookupCity(ctx context.Context, location, lang string) (weather.City, error)
	Forecast(ctx context.Context, city weather.City, lang string) (weather.Forecast, error)
}

// WeatherStore archives daily weather records per business system.
type WeatherStore interface {
	Save(ctx context.Context, system string, rec weather.Record) (created bool, err error)
	Systems() []string
}

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a plain-text email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// CameraController drives network cameras by alias.
type CameraController interface {
	Cameras() []string
	Control(ctx context.Context, cmd CameraCommand) (string, error)
}

// VisionAnalyzer answers questions about a camera snapshot.
type VisionAnalyzer interface {
	Cameras() []string
	Analyze(ctx context.Context, req VisionRequest) (string, error)
}

// Deps are the collaborators the built-in capabilities call. Nil
// collaborators make the capabilities that need them answer that the
// feature is unavailable.
type Deps struct {
	Loader  *cache.Loader
	Weather WeatherSource
	Store   WeatherStore
	Mailer  Mailer
	Cameras CameraController
	Vision  VisionAnalyzer

	// Contacts maps a recipient alias to an email address.
	Contacts map[string]string

	// DefaultLocation is used when a call names no location.
	DefaultLocation string

	// Source labels archived records. Default: "qweather"
	Source string

	// Debug appends the cache summary to weather reports.
	Debug bool

	Logger observe.Logger
	Now    func() time.Time
}

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = observe.NopLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Source == "" {
		d.Source = "qweather"
	}
}
