package capability

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jonwraymond/toolhub/dispatch"
	"github.com/jonwraymond/toolhub/observe"
	"github.com/jonwraymond/toolhub/weather"
)

func (w *weatherCapabilities) saveDescriptor() dispatch.Descriptor {
	return dispatch.Descriptor{
		Name:       SaveWeather,
		Convention: dispatch.ContextBound,
		Definition: describe(SaveWeather,
			"Save today's weather for a place into a business system's database. "+
				"Use when the user asks to record or archive the weather.",
			object(map[string]any{
				"system_alias": str("Alias of the target business system, as configured."),
				"location":     str("Place name. Omit to use the default location."),
				"lang":         str("Language code of the user. Default zh_CN."),
			}, "system_alias"),
		),
		Bound: w.save,
	}
}

func (w *weatherCapabilities) save(ctx context.Context, _ dispatch.Session, args dispatch.Arguments) (*dispatch.Response, error) {
	store := w.deps.Store
	if store == nil {
		return dispatch.ReqLLM("No weather archive is configured on this assistant."), nil
	}

	system := args.TextOr("system_alias", "")
	systems := store.Systems()
	if !slices.Contains(systems, system) {
		return dispatch.ReqLLM(fmt.Sprintf("I don't know a system called %q. Configured systems: %s.",
			system, strings.Join(systems, ", "))), nil
	}

	location := w.location(args)
	if location == "" {
		return dispatch.ReqLLM("Which place's weather should I save?"), nil
	}
	res, err := w.forecast(ctx, location, args.TextOr("lang", "zh_CN"), false)
	if err != nil {
		return w.failure(ctx, location, err), nil
	}

	rec := weather.NewRecord(res.forecast, w.deps.Now(), w.deps.Source)
	created, err := store.Save(ctx, system, rec)
	if err != nil {
		w.deps.Logger.Error(ctx, "saving weather record failed",
			observe.F("system", system), observe.F("location", rec.Location), observe.Err(err))
		return dispatch.ReqLLM(fmt.Sprintf("Saving the weather to %s failed. Please check the database.", system)), nil
	}

	verb := "updated today's"
	if created {
		verb = "added a new"
	}
	w.deps.Logger.Info(ctx, "weather record saved",
		observe.F("system", system), observe.F("location", rec.Location), observe.F("created", created))
	return dispatch.ReqLLM(fmt.Sprintf("Saved the weather for %s to %s (%s record for %s): %s, %s, humidity %s, wind %s.",
		rec.Location, system, verb, rec.Date, rec.Current, rec.Temperature, rec.Humidity, rec.Wind)), nil
}
