// Package ui renders terminal output for the CLI with lipgloss styles.
//
// [Palette] holds the application's named styles. The render functions turn engine progress updates
// and run results into styled text; progress lines are printed as they arrive and summaries once a command finishes.
package ui
