package handlers

import "strings"

// URLPathJoin joins URL path pieces with single slashes, keeping a leading slash
// on the first piece and a trailing slash on the last, as Jupyter servers do.
func URLPathJoin(pieces ...string) string {
	if len(pieces) == 0 {
		return ""
	}

	initial := strings.HasPrefix(pieces[0], "/")
	final := strings.HasSuffix(pieces[len(pieces)-1], "/")

	stripped := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if piece = strings.Trim(piece, "/"); piece != "" {
			stripped = append(stripped, piece)
		}
	}

	result := strings.Join(stripped, "/")
	if initial {
		result = "/" + result
	}
	if final {
		result += "/"
	}
	if result == "//" {
		result = "/"
	}
	return result
}
