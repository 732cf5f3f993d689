package dispatch

import "errors"

var (
	// ErrUnknownCapability is returned when a name is not in the catalog.
	ErrUnknownCapability = errors.New("dispatch: unknown capability")

	// ErrDuplicateCapability is returned when a catalog already holds a name.
	ErrDuplicateCapability = errors.New("dispatch: capability already in catalog")

	// ErrInvalidDescriptor is returned for a descriptor without a name.
	ErrInvalidDescriptor = errors.New("dispatch: invalid descriptor")

	// ErrRegistrySealed is returned when registering after DescribeAll.
	ErrRegistrySealed = errors.New("dispatch: registry is sealed")

	// ErrMalformedArguments wraps an argument payload that could not be
	// decoded or repaired.
	ErrMalformedArguments = errors.New("dispatch: malformed arguments")

	// ErrUnsupportedConvention is returned when a registered capability has
	// no callable for its calling convention.
	ErrUnsupportedConvention = errors.New("dispatch: unsupported calling convention")

	// ErrPromptUnsupported is returned when a prompt-mutating capability is
	// called with a session that has no prompt state.
	ErrPromptUnsupported = errors.New("dispatch: session does not support prompt mutation")
)
