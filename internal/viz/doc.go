// Package viz renders rate-controller runs in the terminal.
//
//   - [Model]: live Bubble Tea view that steps a closed loop in real time
//   - [PlotAxis], [PlotTorque]: static asciigraph plots of a recorded run
//   - Theme selection with 5 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Restart the scenario
//	Tab   - Cycle roll/pitch/yaw
//	Up/Dn - Faster/slower playback
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
