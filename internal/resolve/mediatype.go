package resolve

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// nonImageExt maps extensions that are never images to a coarse kind.
var nonImageExt = map[string]string{
	// video
	".mp4": "video", ".m4v": "video", ".mov": "video", ".avi": "video",
	".mkv": "video", ".webm": "video", ".wmv": "video", ".flv": "video",
	".mpg": "video", ".mpeg": "video", ".3gp": "video", ".ogv": "video",
	// audio
	".mp3": "audio", ".wav": "audio", ".ogg": "audio", ".oga": "audio",
	".flac": "audio", ".m4a": "audio", ".aac": "audio", ".opus": "audio",
	".wma": "audio",
	// archives
	".zip": "archive", ".tar": "archive", ".gz": "archive", ".tgz": "archive",
	".7z": "archive", ".rar": "archive", ".bz2": "archive", ".xz": "archive",
	// documents
	".pdf": "document", ".doc": "document", ".docx": "document",
	".xls": "document", ".xlsx": "document", ".ppt": "document",
	".pptx": "document", ".odt": "document", ".epub": "document",
}

// nonImageKind returns the kind of a target whose extension rules out an
// image, ignoring any URL query or fragment.
func nonImageKind(target string) (string, bool) {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	kind, ok := nonImageExt[strings.ToLower(path.Ext(strings.ReplaceAll(target, `\`, "/")))]
	return kind, ok
}

// nonImageContentType reports whether a declared Content-Type names a
// media kind that cannot be embedded as an image.
func nonImageContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/")
}

// sniff returns the content-detected media type without parameters and
// whether the payload may be an image. Unrecognized binary data is given
// the benefit of the doubt so that a later decode can report the failure.
func sniff(data []byte) (string, bool) {
	m := mimetype.Detect(data)
	mt, _, _ := strings.Cut(m.String(), ";")
	mt = strings.TrimSpace(mt)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return mt, true
	case m.Is("application/octet-stream"):
		return mt, true
	default:
		return mt, false
	}
}
