package domain

// TextCommandPrefix is the marker used to indicate text commands (vs audio)
const TextCommandPrefix = "__TEXT__:"

type Devotional struct {
	Markdown  string
	TTSScript string
}

// Reflection is the outcome of one devotional run.
type Reflection struct {
	ID         string
	Input      string
	Devotional Devotional
	References []SearchResult
	Section    string
	Target     string
}

// PCM is raw linear audio as returned by a speech provider. MimeType follows
// the audio/L<bits>;rate=<hz> convention.
type PCM struct {
	Data     []byte
	MimeType string
}
