package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/tfindex/internal/indexer/index"
)

// Lines reads one document per line as "<id>\t<text>". Blank lines are
// skipped. The locator covers the text after the tab.
type Lines struct {
	path   string
	file   *os.File
	reader *bufio.Reader
	offset int64
	lineNo int
}

func NewLines() *Lines {
	return &Lines{}
}

func (l *Lines) Reset(path string) error {
	if err := l.Close(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening lines corpus: %w", err)
	}
	l.path = path
	l.file = f
	l.reader = bufio.NewReader(f)
	l.offset = 0
	l.lineNo = 0
	return nil
}

func (l *Lines) Next() (Document, error) {
	if l.reader == nil {
		return nil, errors.New("lines source not reset")
	}
	for {
		start := l.offset
		raw, err := l.reader.ReadString('\n')
		l.offset += int64(len(raw))
		l.lineNo++
		if err != nil && !(errors.Is(err, io.EOF) && raw != "") {
			return nil, err
		}
		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		id, text, ok := strings.Cut(line, "\t")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("line %d: expected <id>\\t<text>", l.lineNo)
		}
		return &Doc{
			DocID: strings.TrimSpace(id),
			Body:  text,
			Located: index.Locator{
				Path:   l.path,
				Offset: start + int64(len(id)) + 1,
				Length: int64(len(text)),
			},
		}, nil
	}
}

func (l *Lines) Count() (int, error) {
	if l.path == "" {
		return 0, errors.New("lines source not reset")
	}
	return countLines(l.path, func(line string) bool {
		return strings.TrimSpace(line) != ""
	})
}

func (l *Lines) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.reader = nil
	return err
}
