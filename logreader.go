package tweetstat

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ReadLog calls fn for every record of a newline-delimited stream log, in file order.
// Blank lines are skipped. Iteration stops at the first error from fn.
func ReadLog(r io.Reader, fn func(raw []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamRecord)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// LoadPosts reads the tweets recorded in a stream log. Notices such as limit or
// delete messages are skipped; an undecodable tweet record is an error.
func LoadPosts(path string) ([]*Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stream log: %w", err)
	}
	defer f.Close()

	var posts []*Post
	skipped := 0
	line := 0
	err = ReadLog(f, func(raw []byte) error {
		line++
		p, ok, err := parsePayload(raw)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if !ok {
			skipped++
			return nil
		}
		posts = append(posts, p)
		return nil
	})
	if err != nil {
		return posts, err
	}
	slog.Debug("stream log loaded", slog.String("path", path), slog.Int("posts", len(posts)), slog.Int("skipped", skipped))
	return posts, nil
}
