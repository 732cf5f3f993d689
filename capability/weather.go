package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/toolhub/cache"
	"github.com/jonwraymond/toolhub/dispatch"
	"github.com/jonwraymond/toolhub/observe"
	"github.com/jonwraymond/toolhub/weather"
)

type weatherCapabilities struct {
	deps Deps
}

// lookup is one resolved forecast and how it was served.
type lookup struct {
	forecast   weather.Forecast
	cached     bool
	refreshing bool
}

// forecast resolves location and loads its forecast through the cache.
// City lookups and forecasts are cached in separate namespaces so a
// forecast refresh never repeats the geo lookup.
func (w *weatherCapabilities) forecast(ctx context.Context, location, lang string, force bool) (lookup, error) {
	src := w.deps.Weather
	if src == nil {
		return lookup{}, errUnavailable
	}
	lang = weather.Lang(lang)

	load := func(ns, subject string, fn cache.LoadFunc) (cache.Result, error) {
		if w.deps.Loader == nil {
			v, err := fn(ctx)
			return cache.Result{Value: v}, err
		}
		return w.deps.Loader.Load(ctx, ns, subject, force, fn)
	}

	cityRes, err := load(cache.NamespaceCity, strings.ToLower(location)+"_"+lang, func(ctx context.Context) (any, error) {
		return src.LookupCity(ctx, location, lang)
	})
	if err != nil {
		return lookup{}, err
	}
	city := cityRes.Value.(weather.City)

	fcRes, err := load(cache.NamespaceWeather, city.ID+"_"+lang, func(ctx context.Context) (any, error) {
		return src.Forecast(ctx, city, lang)
	})
	if err != nil {
		return lookup{}, err
	}
	return lookup{
		forecast:   fcRes.Value.(weather.Forecast),
		cached:     fcRes.Cached,
		refreshing: fcRes.Refreshing,
	}, nil
}

var errUnavailable = errors.New("capability: collaborator not configured")

func (w *weatherCapabilities) location(args dispatch.Arguments) string {
	return args.TextOr("location", w.deps.DefaultLocation)
}

// failure turns a forecast error into something the model can relay.
func (w *weatherCapabilities) failure(ctx context.Context, location string, err error) *dispatch.Response {
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		return dispatch.ReqLLM(fmt.Sprintf("No city matched %q. Please check the location name.", location))
	case errors.Is(err, errUnavailable):
		return dispatch.ReqLLM("Weather lookups are not configured on this assistant.")
	}
	w.deps.Logger.Warn(ctx, "weather lookup failed", observe.F("location", location), observe.Err(err))
	return dispatch.ReqLLM("The weather service did not answer. Please try again in a moment.")
}

func (w *weatherCapabilities) getDescriptor() dispatch.Descriptor {
	return dispatch.Descriptor{
		Name:       GetWeather,
		Convention: dispatch.ContextBound,
		Definition: describe(GetWeather,
			"Get the current weather and the coming days' forecast for a place. "+
				"Results are cached; set force_refresh only when the user asks for the latest data.",
			object(map[string]any{
				"location":      str("Place name, for example Hangzhou. Omit to use the default location."),
				"lang":          str("Language code of the user, such as zh_CN, zh_HK, en_US or ja_JP. Default zh_CN."),
				"force_refresh": map[string]any{"type": "boolean", "description": "Bypass the cache. Default false."},
			}, "lang"),
		),
		Bound: w.get,
	}
}

func (w *weatherCapabilities) get(ctx context.Context, _ dispatch.Session, args dispatch.Arguments) (*dispatch.Response, error) {
	location := w.location(args)
	if location == "" {
		return dispatch.ReqLLM("Which place should I check the weather for?"), nil
	}

	res, err := w.forecast(ctx, location, args.TextOr("lang", "zh_CN"), args.Bool("force_refresh"))
	if err != nil {
		return w.failure(ctx, location, err), nil
	}

	report := weather.Report(res.forecast, res.cached)
	if res.refreshing {
		report += "\n(Newer data is being fetched in the background.)"
	}
	if w.deps.Debug && w.deps.Loader != nil {
		report += "\n\n" + w.deps.Loader.Pool().Info()
	}
	return dispatch.ReqLLM(report), nil
}
