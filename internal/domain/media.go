package domain

import "fmt"

// AudioFormat is an accepted audio container format.
type AudioFormat string

const (
	FormatMP3 AudioFormat = "mp3"
	FormatOGG AudioFormat = "ogg"
	FormatM4A AudioFormat = "m4a"
	FormatWAV AudioFormat = "wav"
)

func (f AudioFormat) Extension() string {
	return "." + string(f)
}

// FormatForMIME maps an inbound MIME type to its container format. Anything
// outside the accepted set fails with ErrUnsupportedFormat and must be
// rejected before any download or transcription call.
func FormatForMIME(mimeType string) (AudioFormat, error) {
	switch mimeType {
	case "audio/mpeg":
		return FormatMP3, nil
	case "audio/ogg":
		return FormatOGG, nil
	case "audio/mp4", "audio/x-m4a":
		return FormatM4A, nil
	case "audio/wav":
		return FormatWAV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, mimeType)
	}
}
