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

// cacmTextFields are the sections whose content is indexed. Authors (.A),
// dates (.B), entry notes (.N) and citations (.X) are skipped.
var cacmTextFields = map[string]bool{".T": true, ".W": true, ".K": true}

// CACM reads the SMART/CACM collection format: each document starts with an
// ".I <id>" line followed by dot-prefixed sections.
type CACM struct {
	path   string
	file   *os.File
	reader *bufio.Reader
	offset int64
	// header is the ".I" line already consumed while finishing the previous
	// document, with its starting offset.
	header       string
	headerOffset int64
}

func NewCACM() *CACM {
	return &CACM{}
}

func (c *CACM) Reset(path string) error {
	if err := c.Close(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening cacm corpus: %w", err)
	}
	c.path = path
	c.file = f
	c.reader = bufio.NewReader(f)
	c.offset = 0
	c.header = ""
	return nil
}

func (c *CACM) readLine() (string, int64, error) {
	start := c.offset
	line, err := c.reader.ReadString('\n')
	c.offset += int64(len(line))
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", start, err
	}
	return strings.TrimRight(line, "\r\n"), start, nil
}

func (c *CACM) Next() (Document, error) {
	if c.reader == nil {
		return nil, errors.New("cacm source not reset")
	}
	header, start := c.header, c.headerOffset
	for header == "" {
		line, off, err := c.readLine()
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(line, ".I") {
			header, start = line, off
		}
	}
	c.header = ""

	id := strings.TrimSpace(strings.TrimPrefix(header, ".I"))
	if id == "" {
		return nil, fmt.Errorf("cacm document at offset %d has no id", start)
	}
	var body strings.Builder
	section := ""
	end := c.offset
	for {
		line, off, err := c.readLine()
		if errors.Is(err, io.EOF) {
			end = c.offset
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading cacm document %s: %w", id, err)
		}
		if strings.HasPrefix(line, ".I") {
			c.header, c.headerOffset = line, off
			end = off
			break
		}
		if isSection(line) {
			section = line[:2]
			continue
		}
		if cacmTextFields[section] {
			if body.Len() > 0 {
				body.WriteByte(' ')
			}
			body.WriteString(line)
		}
	}
	return &Doc{
		DocID: id,
		Body:  body.String(),
		Located: index.Locator{
			Path:   c.path,
			Offset: start,
			Length: end - start,
		},
	}, nil
}

func isSection(line string) bool {
	if len(line) < 2 || line[0] != '.' || line[1] < 'A' || line[1] > 'Z' {
		return false
	}
	return len(line) == 2 || line[2] == ' '
}

// Count scans the bound file for ".I" lines.
func (c *CACM) Count() (int, error) {
	if c.path == "" {
		return 0, errors.New("cacm source not reset")
	}
	return countLines(c.path, func(line string) bool {
		return strings.HasPrefix(line, ".I")
	})
}

func (c *CACM) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	c.reader = nil
	return err
}

func countLines(path string, match func(string) bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		if match(sc.Text()) {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("scanning corpus: %w", err)
	}
	return n, nil
}
