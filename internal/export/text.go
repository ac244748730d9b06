package export

import "github.com/dgallion1/llmdesk/internal/doctree"

// Text writes the response as plain UTF-8 text. It is the download of last
// resort when PDF creation fails.
type Text struct{}

func (Text) Export(blocks []doctree.Block, meta doctree.Metadata) ([]byte, error) {
	return []byte(source(blocks, meta)), nil
}

func (Text) ContentType() string { return "text/plain; charset=utf-8" }

// Filename is response_<model>_<first 15 characters of the question>.txt.
func (Text) Filename(meta doctree.Metadata) string {
	q := []rune(meta.Question)
	if len(q) > 15 {
		q = q[:15]
	}
	return sanitizeFilename("response_"+meta.ModelName+"_"+string(q)) + ".txt"
}
