package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	pollInterval  = 250 * time.Millisecond
	maxLineLength = 1024 * 1024
)

// TailOptions controls a Tail call. A negative Offset means "the last Limit
// lines"; otherwise reading starts at Offset. Match, when set, keeps only
// lines containing it.
type TailOptions struct {
	Offset int64
	Limit  int
	Match  string
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads path according to opts. A missing file is not an error: the log
// is only created by the first batch.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	var result TailResult
	if opts.Offset < 0 {
		result, err = lastLines(path, opts.Limit, opts.Match)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// Truncated since the last read; start over.
			offset = 0
		}
		result, err = readFrom(path, offset, opts.Match)
	}
	if err != nil || !opts.Follow || opts.Wait <= 0 || len(result.Lines) > 0 {
		return result, err
	}
	return waitForLines(ctx, path, result.Offset, opts.Match, opts.Wait)
}

func lastLines(path string, limit int, match string) (TailResult, error) {
	all, err := readFrom(path, 0, match)
	if err != nil || limit <= 0 {
		return TailResult{Offset: all.Offset}, err
	}
	if len(all.Lines) > limit {
		all.Lines = all.Lines[len(all.Lines)-limit:]
	}
	return all, nil
}

func readFrom(path string, offset int64, match string) (TailResult, error) {
	result := TailResult{Offset: offset}

	file, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return result, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// A partial trailing line is left for the next read.
			break
		}
		if err != nil {
			return result, fmt.Errorf("read log file: %w", err)
		}
		result.Offset += int64(len(line))
		line = strings.TrimRight(line, "\r\n")
		if len(line) > maxLineLength {
			line = line[:maxLineLength]
		}
		if match == "" || strings.Contains(line, match) {
			result.Lines = append(result.Lines, line)
		}
	}
	return result, nil
}

func waitForLines(ctx context.Context, path string, offset int64, match string, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}

		next, err := readFrom(path, result.Offset, match)
		if err != nil {
			return result, err
		}
		result = next
		if len(result.Lines) > 0 || time.Now().After(deadline) {
			return result, nil
		}
	}
}
