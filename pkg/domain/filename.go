package domain

import (
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxBaseNameLen keeps derived names well below common filesystem limits (255 bytes)
const maxBaseNameLen = 200

// extensionsByType maps enclosure MIME types to file extensions
var extensionsByType = map[string]string{
	"audio/mpeg":      "mp3",
	"audio/mp3":       "mp3",
	"audio/aac":       "aac",
	"audio/ogg":       "ogg",
	"audio/opus":      "opus",
	"audio/mp4":       "mp4",
	"audio/x-m4a":     "m4a",
	"audio/m4a":       "m4a",
	"audio/wav":       "wav",
	"audio/x-wav":     "wav",
	"audio/flac":      "flac",
	"video/mp4":       "mp4",
	"video/x-m4v":     "m4v",
	"video/webm":      "webm",
	"video/quicktime": "mov",
	"application/pdf": "pdf",
	"application/zip": "zip",
	"image/jpeg":      "jpg",
	"image/png":       "png",
}

// FileName returns the name the item's enclosure is stored under.
// The same name is used when downloading and when checking whether an item
// was already downloaded, so both must go through this method.
// The base is the title, falling back to GUID and then to the item index.
func (i Item) FileName() string {
	base := sanitizeName(i.Title)
	if base == "" {
		base = sanitizeName(i.GUID)
	}
	if base == "" {
		base = "item-" + strconv.Itoa(i.Index)
	}

	ext := i.extension()
	if ext == "" || strings.HasSuffix(strings.ToLower(base), "."+ext) {
		return base
	}
	return base + "." + ext
}

// extension picks the file extension from the enclosure MIME type or URL path
func (i Item) extension() string {
	if i.Enclosure.Type != "" {
		mediaType, _, err := mime.ParseMediaType(i.Enclosure.Type)
		if err == nil {
			if ext, ok := extensionsByType[mediaType]; ok {
				return ext
			}
		}
	}

	if i.Enclosure.URL == "" {
		return ""
	}
	u, err := url.Parse(i.Enclosure.URL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if ext == "" || len(ext) > 5 {
		return ""
	}
	for _, r := range ext {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return ""
		}
	}
	return ext
}

// sanitizeName replaces characters that can't be part of a file name on common
// filesystems and trims the result to maxBaseNameLen bytes
func sanitizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		if unicode.IsControl(r) {
			return '-'
		}
		return r
	}, s)
	s = strings.Trim(s, " .\t")

	if len(s) > maxBaseNameLen {
		cut := maxBaseNameLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimRight(s[:cut], " .")
	}
	return s
}
