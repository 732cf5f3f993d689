package capability

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jonwraymond/toolhub/dispatch"
	"github.com/jonwraymond/toolhub/observe"
)

// Camera actions and move directions.
var (
	CameraActions    = []string{"move", "capture", "patrol", "stop", "preset"}
	CameraDirections = []string{"up", "down", "left", "right", "zoom_in", "zoom_out"}
)

// MaxMoveDuration caps a single camera move.
const MaxMoveDuration = 10 * time.Second

// CameraCommand is one validated camera operation.
type CameraCommand struct {
	Alias     string
	Action    string
	Direction string
	Preset    string
	Duration  time.Duration
}

// VisionRequest asks a question about a camera's current view.
type VisionRequest struct {
	Alias        string
	Question     string
	AnalysisType string
}

// Vision analysis types.
var AnalysisTypes = []string{"general", "people_count", "object_detection", "security_check", "scene"}

type cameraCapabilities struct {
	deps Deps
}

func (c *cameraCapabilities) controlDescriptor() dispatch.Descriptor {
	return dispatch.Descriptor{
		Name:       CameraControl,
		Convention: dispatch.ContextBound,
		Definition: describe(CameraControl,
			"Control a network camera: move it, take a snapshot, start a patrol, stop, or go to a preset position.",
			object(map[string]any{
				"camera_alias": str("Camera alias as configured, such as living room camera."),
				"action":       enum("Operation to perform.", CameraActions...),
				"direction":    enum("Direction for move.", CameraDirections...),
				"preset_name":  str("Preset position name for preset."),
				"duration":     map[string]any{"type": "number", "description": "Move duration in seconds. Default 2."},
			}, "camera_alias", "action"),
		),
		Bound: c.control,
	}
}

func (c *cameraCapabilities) control(ctx context.Context, _ dispatch.Session, args dispatch.Arguments) (*dispatch.Response, error) {
	ctl := c.deps.Cameras
	if ctl == nil {
		return dispatch.ReqLLM("Camera control is unavailable on this assistant."), nil
	}

	cmd := CameraCommand{
		Alias:     args.TextOr("camera_alias", ""),
		Action:    strings.ToLower(args.TextOr("action", "")),
		Direction: strings.ToLower(args.TextOr("direction", "")),
		Preset:    args.TextOr("preset_name", ""),
		Duration:  time.Duration(args.Int("duration", 2)) * time.Second,
	}
	if msg := validateCamera(cmd, ctl.Cameras()); msg != "" {
		return dispatch.ReqLLM(msg), nil
	}
	cmd.Duration = min(max(cmd.Duration, time.Second), MaxMoveDuration)

	out, err := ctl.Control(ctx, cmd)
	if err != nil {
		c.deps.Logger.Error(ctx, "camera control failed",
			observe.F("camera", cmd.Alias), observe.F("action", cmd.Action), observe.Err(err))
		return dispatch.ReqLLM(fmt.Sprintf("The %s camera did not respond. Please check that it is online.", cmd.Alias)), nil
	}
	if out == "" {
		out = fmt.Sprintf("The %s camera finished %s.", cmd.Alias, cmd.Action)
	}
	return dispatch.ReqLLM(out), nil
}

// validateCamera returns a user-facing problem with cmd, or "".
func validateCamera(cmd CameraCommand, cameras []string) string {
	switch {
	case !slices.Contains(cameras, cmd.Alias):
		return fmt.Sprintf("I don't know a camera called %q. Configured cameras: %s.", cmd.Alias, strings.Join(cameras, ", "))
	case !slices.Contains(CameraActions, cmd.Action):
		return fmt.Sprintf("Unsupported camera action %q. Use one of: %s.", cmd.Action, strings.Join(CameraActions, ", "))
	case cmd.Action == "move" && !slices.Contains(CameraDirections, cmd.Direction):
		return fmt.Sprintf("Moving needs a direction: %s.", strings.Join(CameraDirections, ", "))
	case cmd.Action == "preset" && cmd.Preset == "":
		return "Going to a preset needs a preset name."
	}
	return ""
}

func (c *cameraCapabilities) analysisDescriptor() dispatch.Descriptor {
	return dispatch.Descriptor{
		Name:       CameraAnalysis,
		Convention: dispatch.ContextBound,
		Definition: describe(CameraAnalysis,
			"Look through a camera and answer a question about what it sees, such as how many people are in the room.",
			object(map[string]any{
				"camera_alias":  str("Camera alias as configured."),
				"question":      str("What to find out, such as how many people are there or is anything unusual."),
				"analysis_type": enum("Kind of analysis. Optional.", AnalysisTypes...),
			}, "camera_alias", "question"),
		),
		Bound: c.analyze,
	}
}

func (c *cameraCapabilities) analyze(ctx context.Context, _ dispatch.Session, args dispatch.Arguments) (*dispatch.Response, error) {
	va := c.deps.Vision
	if va == nil {
		return dispatch.ReqLLM("Camera analysis is unavailable on this assistant."), nil
	}

	req := VisionRequest{
		Alias:        args.TextOr("camera_alias", ""),
		Question:     args.TextOr("question", ""),
		AnalysisType: args.TextOr("analysis_type", "general"),
	}
	cameras := va.Cameras()
	switch {
	case !slices.Contains(cameras, req.Alias):
		return dispatch.ReqLLM(fmt.Sprintf("I don't know a camera called %q. Configured cameras: %s.",
			req.Alias, strings.Join(cameras, ", "))), nil
	case req.Question == "":
		return dispatch.ReqLLM("What should I look for on the camera?"), nil
	case !slices.Contains(AnalysisTypes, req.AnalysisType):
		req.AnalysisType = "general"
	}

	answer, err := va.Analyze(ctx, req)
	if err != nil {
		c.deps.Logger.Error(ctx, "camera analysis failed", observe.F("camera", req.Alias), observe.Err(err))
		return dispatch.ReqLLM(fmt.Sprintf("I couldn't get a picture from the %s camera.", req.Alias)), nil
	}
	return dispatch.ReqLLM(fmt.Sprintf("[%s camera] %s", req.Alias, answer)), nil
}
