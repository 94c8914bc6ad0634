package ingest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sheet is one table of text cells. Missing trailing cells read as blank.
type Sheet struct {
	Header []string   `yaml:"header"`
	Rows   [][]string `yaml:"rows"`
}

// ParseSheet decodes a YAML sheet document:
//
//	header: [名称, 数量, 单价, 小计]
//	rows:
//	  - [螺栓, 10, 2.5, 25]
//	  - [垫片, 10, ~, ~]
func ParseSheet(data []byte) (*Sheet, error) {
	var s Sheet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode sheet: %w", err)
	}
	if len(s.Header) == 0 {
		return nil, fmt.Errorf("decode sheet: header is empty")
	}
	return &s, nil
}

// ReadSheet reads and decodes a sheet file. It also returns the sha256 of
// the raw bytes.
func ReadSheet(path string) (*Sheet, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read sheet: %w", err)
	}
	s, err := ParseSheet(data)
	if err != nil {
		return nil, "", err
	}
	return s, HashContent(data), nil
}

// HashContent returns the hex sha256 of raw file bytes.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// cell returns the trimmed cell at col, or "" when the row is short.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return trimSpace(row[col])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if trimSpace(c) != "" {
			return false
		}
	}
	return true
}
