package consts

const (
	// Audio formats accepted on upload
	FormatWAV  = "wav"
	FormatMP3  = "mp3"
	FormatWebM = "webm"
	FormatM4A  = "m4a"

	// Upload limits
	MaxAudioSize = 25 * 1024 * 1024 // 25MB

	// Fallback extraction bounds
	MaxFallbackKeyPoints = 5
	TopicWordCount       = 3

	// Topic defaults
	PlaceholderTopic = "Untitled"
	DefaultNoteTopic = "Meeting Notes"
)
