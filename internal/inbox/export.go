package inbox

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/mnemo/internal/noteservice"
	"github.com/starford/mnemo/internal/storage"
)

// Searcher lists notes.
type Searcher interface {
	Search(ctx context.Context, keyword, tag string) ([]noteservice.NoteDetail, error)
}

type exportHeader struct {
	Title     string    `yaml:"title"`
	Tags      []string  `yaml:"tags,flow"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Export writes every note matching keyword and tag to files as
// "<id>.md" with a YAML frontmatter header. The output can be dropped back
// into an inbox: the importer takes the title from the header.
func Export(ctx context.Context, notes Searcher, files storage.Provider, keyword, tag string) (int, error) {
	list, err := notes.Search(ctx, keyword, tag)
	if err != nil {
		return 0, err
	}
	for i := range list {
		data, err := Render(&list[i])
		if err != nil {
			return i, err
		}
		if err := files.Write(list[i].ID+".md", data); err != nil {
			return i, err
		}
	}
	return len(list), nil
}

// Render formats a note as a markdown file with frontmatter.
func Render(n *noteservice.NoteDetail) ([]byte, error) {
	header, err := yaml.Marshal(exportHeader{
		Title:     n.Title,
		Tags:      n.Tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("inbox: render %s: %w", n.ID, err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(n.Body)
	return buf.Bytes(), nil
}
