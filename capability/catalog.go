package capability

import (
	"github.com/jonwraymond/toolhub/dispatch"
)

// Built-in capability names.
const (
	ExitIntent     = "handle_exit_intent"
	PluginLoader   = "plugin_loader"
	GetTime        = "get_time"
	GetWeather     = "get_weather_cached"
	SaveWeather    = "save_weather_to_db"
	SendEmail      = "send_email"
	CameraControl  = "onvif_camera_control"
	CameraAnalysis = "vision_camera_analysis"
)

// AlwaysOn are registered for every session.
var AlwaysOn = []string{ExitIntent, PluginLoader, GetTime}

// Forced are appended to every session's configured functions.
var Forced = []string{SendEmail, SaveWeather, CameraControl, CameraAnalysis}

// NewCatalog returns the built-in catalog bound to d.
func NewCatalog(d Deps) *dispatch.Catalog {
	d.defaults()
	c := dispatch.NewCatalog()

	c.MustAdd(exitDescriptor())
	c.MustAdd(pluginLoaderDescriptor(c))
	c.MustAdd(timeDescriptor(d.Now))

	w := &weatherCapabilities{deps: d}
	c.MustAdd(w.getDescriptor())
	c.MustAdd(w.saveDescriptor())
	c.MustAdd(w.emailDescriptor())

	cam := &cameraCapabilities{deps: d}
	c.MustAdd(cam.controlDescriptor())
	c.MustAdd(cam.analysisDescriptor())
	return c
}

// object builds a JSON-schema object for function parameters.
func object(props map[string]any, required ...string) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func enum(desc string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": desc, "enum": values}
}

func describe(name, desc string, params map[string]any) dispatch.Definition {
	return dispatch.Definition{
		Type: "function",
		Function: dispatch.FunctionSpec{
			Name:        name,
			Description: desc,
			Parameters:  params,
		},
	}
}
