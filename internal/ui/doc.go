// Package ui implements the interactive diagnostics viewer using Bubble Tea.
//
// The viewer has two screens: the log view, which shows parsed entries
// newest first with a minimum-level filter and regex search, and the crash
// view, which lists stacktrace files and previews the selected one. Both read
// from a state.Store that the refresher keeps current; the model polls it on
// a short tick and asks for an immediate reload on "r".
//
// Rendering goes through BgStyle so that adjacent styled segments keep a
// continuous background. The selected theme is persisted to prefs when
// cycled with "T".
package ui
