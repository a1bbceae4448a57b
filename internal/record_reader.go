package internal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/astro-otter/otter"
)

// ReadRecordsFile reads transient records from a JSON or JSONL file.
func ReadRecordsFile(path string) ([]otter.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()
	return ReadRecords(f)
}

// ReadRecords accepts a JSON array of objects, a single object, or one object
// per line. Blank lines are skipped.
func ReadRecords(r io.Reader) ([]otter.Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []otter.Record{}, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		var records []otter.Record
		if err := json.NewDecoder(br).Decode(&records); err != nil {
			return nil, otter.NewInvalidDocumentError("input is not a JSON array of objects", err)
		}
		return records, nil
	}

	records := []otter.Record{}
	dec := json.NewDecoder(br)
	for n := 1; ; n++ {
		var rec otter.Record
		err := dec.Decode(&rec)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, otter.NewInvalidDocumentError(fmt.Sprintf("record %d is not a JSON object", n), err)
		}
		records = append(records, rec)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
