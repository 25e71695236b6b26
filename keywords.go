package main

import (
	"bufio"
	"os"
	"strings"
)

const (
	keywordCommentMarker    = "#"
	keywordContextDelimiter = ":"
)

// LoadKeywords parses the keyword file into tasks, preserving file order.
// Lines starting with # and blank lines are skipped. Text after the first
// colon is the optional context. Duplicate keywords are kept; each is a
// separate task. Re-reading the same file yields the same sequence.
func LoadKeywords(path string) ([]KeywordTask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &KeywordFileError{Path: path, Reason: "cannot open", Err: err}
	}
	defer f.Close()

	var tasks []KeywordTask
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, keywordCommentMarker) {
			continue
		}

		keyword, context := line, ""
		if idx := strings.Index(line, keywordContextDelimiter); idx >= 0 {
			keyword = strings.TrimSpace(line[:idx])
			context = strings.TrimSpace(line[idx+1:])
		}
		if keyword == "" {
			continue
		}

		tasks = append(tasks, KeywordTask{Keyword: keyword, Context: context})
	}
	if err := scanner.Err(); err != nil {
		return nil, &KeywordFileError{Path: path, Reason: "read failed", Err: err}
	}

	if len(tasks) == 0 {
		return nil, &KeywordFileError{Path: path, Reason: "no usable keywords found"}
	}

	return tasks, nil
}
