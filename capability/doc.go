// Package capability provides the built-in capability catalog: exit,
// plugin focus, time, cached weather reports, weather archiving, weather
// mail and camera control.
//
// Capabilities call their collaborators through the interfaces in Deps.
// A missing collaborator or an expected upstream failure becomes a
// natural-language result for the model rather than an error.
package capability
