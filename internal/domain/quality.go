package domain

import "fmt"

// Quality is a named download quality preset.
type Quality string

const (
	QualityBest  Quality = "best"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	Quality360p  Quality = "360p"
	QualityAudio Quality = "audio"
)

// Qualities lists every preset in display order.
var Qualities = []Quality{QualityBest, Quality1080p, Quality720p, Quality480p, Quality360p, QualityAudio}

var qualityFormats = map[Quality]string{
	QualityBest:  "best",
	Quality1080p: "best[height<=1080][ext=mp4]/best[height<=1080]/best",
	Quality720p:  "best[height<=720][ext=mp4]/best[height<=720]/best",
	Quality480p:  "best[height<=480][ext=mp4]/best[height<=480]/best",
	Quality360p:  "best[height<=360][ext=mp4]/best[height<=360]/best",
	QualityAudio: "bestaudio[ext=m4a]/bestaudio",
}

// ParseQuality validates a preset name. An empty name yields fallback.
func ParseQuality(name string, fallback Quality) (Quality, error) {
	if name == "" {
		return fallback, nil
	}
	q := Quality(name)
	if _, ok := qualityFormats[q]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidQuality, name)
	}
	return q, nil
}

// Format returns the yt-dlp format selector for the preset. Unknown presets
// get the 720p selector.
func (q Quality) Format() string {
	if f, ok := qualityFormats[q]; ok {
		return f
	}
	return qualityFormats[Quality720p]
}

// Extension returns the file extension produced by the preset.
func (q Quality) Extension() string {
	if q == QualityAudio {
		return "m4a"
	}
	return "mp4"
}
