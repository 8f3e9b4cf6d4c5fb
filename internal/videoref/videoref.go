package videoref

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/osvaldoandrade/tldw/pkg/domain"
)

var urlPattern = regexp.MustCompile(`https?://(www\.)?(youtube\.com/watch\?v=|youtu\.be/)[\w\-=&]+`)

// ExtractVideoURL scans message parts in reverse insertion order and returns
// the first YouTube URL found, so the most recently added part wins. Items
// inside a data part are scanned in reverse as well. Within a single text the
// first regex match wins.
func ExtractVideoURL(msg domain.Message) (string, bool) {
	for i := len(msg.Parts) - 1; i >= 0; i-- {
		part := msg.Parts[i]
		switch part.Kind {
		case domain.PartKindText:
			if part.Text == "" {
				continue
			}
			if m := urlPattern.FindString(part.Text); m != "" {
				return m, true
			}
		case domain.PartKindData:
			for j := len(part.Data) - 1; j >= 0; j-- {
				item, ok := part.Data[j].(map[string]any)
				if !ok {
					continue
				}
				if item["kind"] != string(domain.PartKindText) {
					continue
				}
				text, _ := item["text"].(string)
				if text == "" {
					continue
				}
				if m := urlPattern.FindString(text); m != "" {
					return m, true
				}
			}
		}
	}
	return "", false
}

// ResolveVideoID parses a YouTube URL into its video id. Supported shapes:
// youtu.be/<id>, youtube.com/watch?v=<id>, youtube.com/embed/<id> and
// youtube.com/v/<id>. Anything else yields absent.
func ResolveVideoID(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch u.Hostname() {
	case "youtu.be":
		id := strings.TrimPrefix(u.Path, "/")
		return id, id != ""
	case "youtube.com", "www.youtube.com":
		if u.Path == "/watch" {
			id := u.Query().Get("v")
			return id, id != ""
		}
		if strings.HasPrefix(u.Path, "/embed/") || strings.HasPrefix(u.Path, "/v/") {
			segs := strings.Split(u.Path, "/")
			if len(segs) > 2 && segs[2] != "" {
				return segs[2], true
			}
		}
	}
	return "", false
}
