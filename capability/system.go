package capability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/toolhub/dispatch"
)

func exitDescriptor() dispatch.Descriptor {
	return dispatch.Descriptor{
		Name:       ExitIntent,
		Convention: dispatch.ContextBound,
		Definition: describe(ExitIntent,
			"Call when the user wants to end the conversation or leave.",
			object(map[string]any{
				"say_goodbye": str("A short goodbye to speak to the user."),
			}, "say_goodbye"),
		),
		Bound: func(_ context.Context, _ dispatch.Session, args dispatch.Arguments) (*dispatch.Response, error) {
			return dispatch.Terminal(args.TextOr("say_goodbye", "Goodbye, talk to you soon.")), nil
		},
	}
}

// focusMarker prefixes the plugin focus line plugin_loader keeps at the end
// of the session prompt.
const focusMarker = "\n\n[active plugin] "

func pluginLoaderDescriptor(c *dispatch.Catalog) dispatch.Descriptor {
	return dispatch.Descriptor{
		Name:       PluginLoader,
		Convention: dispatch.ContextAndPromptMutating,
		Meta:       true,
		Definition: describe(PluginLoader,
			"Switch the assistant's focus to one plugin. Available plugins: "+dispatch.PluginsPlaceholder+".",
			object(map[string]any{
				"plugin_name": str("Name of the plugin to focus on."),
			}, "plugin_name"),
		),
		Bound: func(_ context.Context, s dispatch.Session, args dispatch.Arguments) (*dispatch.Response, error) {
			name := args.TextOr("plugin_name", "")
			if name == "" {
				return dispatch.ReqLLM("No plugin name was given."), nil
			}
			if _, ok := c.Lookup(name); !ok || name == PluginLoader {
				return dispatch.ReqLLM(fmt.Sprintf("There is no plugin called %q.", name)), nil
			}

			ps := s.(dispatch.PromptSession)
			base, _, _ := strings.Cut(ps.Prompt(), focusMarker)
			ps.SetPrompt(base + focusMarker + name)
			return dispatch.ReqLLM(fmt.Sprintf("Plugin %s is now active.", name)), nil
		},
	}
}

func timeDescriptor(now func() time.Time) dispatch.Descriptor {
	return dispatch.Descriptor{
		Name:       GetTime,
		Convention: dispatch.ArgumentOnly,
		Definition: describe(GetTime,
			"Get the current date, time and weekday.",
			object(map[string]any{
				"timezone": str("IANA time zone such as Asia/Shanghai. Optional."),
			}),
		),
		Plain: func(_ context.Context, args dispatch.Arguments) (*dispatch.Response, error) {
			t := now()
			if tz := args.TextOr("timezone", ""); tz != "" {
				loc, err := time.LoadLocation(tz)
				if err != nil {
					return dispatch.ReqLLM(fmt.Sprintf("Unknown time zone %q.", tz)), nil
				}
				t = t.In(loc)
			}
			return dispatch.ReqLLM(fmt.Sprintf("Current date: %s, time: %s, %s (%s).",
				t.Format(time.DateOnly), t.Format(time.TimeOnly), t.Weekday(), t.Location())), nil
		},
	}
}
