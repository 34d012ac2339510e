package mimetypes

import (
	"chat-sync/domain"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown     MIME = "unknown"
	TextPlain   MIME = "text/plain"
	OctetStream MIME = "application/octet-stream"

	ApplicationPDF  MIME = "application/pdf"
	ApplicationJSON MIME = "application/json"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"

	AudioMPEG MIME = "audio/mpeg"
	AudioWAV  MIME = "audio/wav"
)

// Matches compares a detected media type, parameters ignored, with an expected one.
func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// Detect sniffs the media type from the leading bytes of data.
func Detect(data []byte) MIME {
	mt, _, err := mime.ParseMediaType(mimetype.Detect(data).String())
	if err != nil {
		return OctetStream
	}
	return MIME(mt)
}

// KindFor maps the sniffed media type of an attachment to the message kind rendering it.
func KindFor(data []byte) (domain.MessageKind, MIME) {
	detected := Detect(data)
	switch {
	case strings.HasPrefix(string(detected), "image/"):
		return domain.KindImage, detected
	case strings.HasPrefix(string(detected), "audio/"):
		return domain.KindAudio, detected
	default:
		return domain.KindFile, detected
	}
}
