// Package ui provides the Bubble Tea TUI for the reviews list.
package ui

import "time"

// frameMsg advances the scroll spring by one animation frame.
type frameMsg time.Time

// Page results arrive as feed.PageLoaded and image results as
// images.Loaded / images.Warmed; App handles those types directly.
