// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Scenario overlay, catalog reload events, Prometheus metrics, SVG export
// 0.2.0 - Braille map renderer, pointer selection and hover, particle flow
// 0.1.0 - Initial release: route catalog, projection, viewport pan and zoom
