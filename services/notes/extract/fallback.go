package extract

import (
	"strings"

	"github.com/voxnote/backend/services/notes/consts"
)

// fallbackKeyPoints derives key points locally when no provider produced
// any: the transcript is split at sentence boundaries and the first few
// sentences become the key points. A transcript without any sentence
// boundary yields itself as the sole key point.
func fallbackKeyPoints(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var points []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		points = append(points, s)
		if len(points) == consts.MaxFallbackKeyPoints {
			break
		}
	}

	if len(points) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			points = []string{trimmed}
		}
	}

	return points
}

// deriveTopic builds a topic from the leading words of the first key point,
// falling back to the placeholder when there are no key points.
func deriveTopic(keyPoints []string) string {
	if len(keyPoints) == 0 {
		return consts.PlaceholderTopic
	}

	words := strings.Fields(keyPoints[0])
	if len(words) > consts.TopicWordCount {
		words = words[:consts.TopicWordCount]
	}
	if len(words) == 0 {
		return consts.PlaceholderTopic
	}

	return strings.Join(words, " ")
}
