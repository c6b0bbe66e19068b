package transcribe

import (
	"bufio"
	"bytes"
	"errors"
	"mime"
	"net/textproto"
)

// Payload size gate for uploaded audio.
const (
	MinAudioSize = 1024
	MaxAudioSize = 25 << 20
)

var (
	ErrNoBoundary    = errors.New("transcribe: missing multipart boundary")
	ErrMalformedPart = errors.New("transcribe: malformed part headers")
	ErrNoAudioPart   = errors.New("transcribe: no audio part found")
	ErrAudioTooSmall = errors.New("transcribe: audio payload too small")
	ErrAudioTooLarge = errors.New("transcribe: audio payload too large")
)

var (
	crlfcrlf = []byte("\r\n\r\n")
	lflf     = []byte("\n\n")
)

// ExtractAudio scans a raw multipart body for the first part whose
// Content-Disposition announces the given form field and returns its binary
// payload with a single trailing line ending trimmed. Parsing is kept
// self-contained: split on the boundary marker, parse per-part headers up to
// the first blank line, treat the remainder as payload.
func ExtractAudio(body []byte, boundary, field string) ([]byte, error) {
	if boundary == "" {
		return nil, ErrNoBoundary
	}
	parts := splitParts(body, []byte("--"+boundary))
	if len(parts) == 0 {
		return nil, ErrNoAudioPart
	}
	for _, part := range parts {
		headers, bodyStart, err := partHeaders(part)
		if err != nil {
			return nil, err
		}
		if !announcesField(headers, field) {
			continue
		}
		return trimTrailingNewline(part[bodyStart:]), nil
	}
	return nil, ErrNoAudioPart
}

// ValidateSize enforces the 1 KiB / 25 MiB gate.
func ValidateSize(payload []byte) error {
	if len(payload) < MinAudioSize {
		return ErrAudioTooSmall
	}
	if len(payload) > MaxAudioSize {
		return ErrAudioTooLarge
	}
	return nil
}

// splitParts returns the byte ranges between consecutive boundary markers.
// The preamble before the first marker and everything after the closing
// marker's "--" are naturally excluded.
func splitParts(body, marker []byte) [][]byte {
	var parts [][]byte
	start := 0
	seenMarker := false
	for {
		idx := bytes.Index(body[start:], marker)
		if idx < 0 {
			break
		}
		idx += start
		if seenMarker {
			parts = append(parts, body[start:idx])
		}
		seenMarker = true
		start = idx + len(marker)
	}
	return parts
}

// partHeaders locates the blank line separating headers from payload and
// decodes the headers. Both CRLF and bare LF separators are accepted.
func partHeaders(part []byte) (textproto.MIMEHeader, int, error) {
	sep := crlfcrlf
	end := bytes.Index(part, sep)
	if end < 0 {
		sep = lflf
		end = bytes.Index(part, sep)
	}
	if end < 0 {
		return nil, 0, ErrMalformedPart
	}

	raw := bytes.Trim(part[:end], "\r\n")
	if len(raw) == 0 {
		return nil, 0, ErrMalformedPart
	}
	// textproto wants a terminating blank line.
	buf := append(append([]byte(nil), raw...), crlfcrlf...)
	headers, err := textproto.NewReader(bufio.NewReader(bytes.NewReader(buf))).ReadMIMEHeader()
	if err != nil {
		return nil, 0, ErrMalformedPart
	}
	return headers, end + len(sep), nil
}

func announcesField(headers textproto.MIMEHeader, field string) bool {
	disposition := headers.Get("Content-Disposition")
	if disposition == "" {
		return false
	}
	mediaType, params, err := mime.ParseMediaType(disposition)
	if err != nil || mediaType != "form-data" {
		return false
	}
	return params["name"] == field
}

func trimTrailingNewline(payload []byte) []byte {
	if bytes.HasSuffix(payload, []byte("\r\n")) {
		return payload[:len(payload)-2]
	}
	if bytes.HasSuffix(payload, []byte("\n")) {
		return payload[:len(payload)-1]
	}
	return payload
}
