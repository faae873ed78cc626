package engine

import (
	"context"
	"strings"
)

// Camera is the collaborator behind photo and video commands.
type Camera interface {
	// TakePhoto captures a still image.
	TakePhoto(ctx context.Context) error

	// RecordVideo records a short clip.
	RecordVideo(ctx context.Context) error
}

// sleepPhrases force immediate SLEEP regression, bypassing the
// inactivity timeout.
var sleepPhrases = []string{
	"go to sleep",
	"stop listening",
	"good night",
	"sleep now",
}

type command int

const (
	cmdNone command = iota
	cmdSleep
	cmdPhoto
	cmdVideo
	cmdShutdown
)

// parseCommand classifies an utterance as a special command, matched by
// substring after normalization.
func parseCommand(text string) command {
	lower := strings.ToLower(strings.TrimSpace(text))

	for _, phrase := range sleepPhrases {
		if strings.Contains(lower, phrase) {
			return cmdSleep
		}
	}
	switch {
	case strings.Contains(lower, "take a photo") || strings.Contains(lower, "take photo"):
		return cmdPhoto
	case strings.Contains(lower, "record video") || strings.Contains(lower, "start recording"):
		return cmdVideo
	case strings.Contains(lower, "shutdown") || strings.Contains(lower, "turn off"):
		return cmdShutdown
	default:
		return cmdNone
	}
}
