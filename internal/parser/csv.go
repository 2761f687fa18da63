package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/csv-backend/backend/internal/models"
)

// ErrUndecodable is returned when the input as a whole cannot be read as
// the canonical text encoding, as opposed to containing skippable lines.
var ErrUndecodable = errors.New("undecodable CSV input")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FrameParser reads and writes frames in the canonical text encoding:
// comma separated, one header row, a synthetic leading index column.
type FrameParser struct {
	// KeepIndex keeps a leading unnamed column as ordinary data instead of
	// treating it as the synthetic index written by Encode.
	KeepIndex bool
}

// NewFrameParser returns a parser with default settings.
func NewFrameParser() *FrameParser {
	return &FrameParser{}
}

// Load parses a file on disk.
func (p *FrameParser) Load(filePath string) (*models.Frame, []*models.RowError, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	frame, rowErrs, err := p.Decode(file)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	return frame, rowErrs, nil
}

// Decode reads a whole frame. Lines with the wrong number of fields or a
// syntax error are skipped and reported; the error return is reserved for
// input that cannot be decoded at all.
func (p *FrameParser) Decode(r io.Reader) (*models.Frame, []*models.RowError, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading input: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		return nil, nil, fmt.Errorf("%w: input is not valid UTF-8", ErrUndecodable)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, fmt.Errorf("%w: no columns to parse", ErrUndecodable)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	var header []string
	for {
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				return nil, nil, fmt.Errorf("%w: no columns to parse", ErrUndecodable)
			}
			return nil, nil, fmt.Errorf("%w: header: %v", ErrUndecodable, err)
		}
		if !isBlankRecord(rec) {
			header = rec
			break
		}
	}

	dropIndex := !p.KeepIndex && len(header) > 1 && header[0] == ""
	if dropIndex {
		header = header[1:]
	}
	width := len(header)
	if dropIndex {
		width++
	}

	raw := make([][]string, 0)
	rowErrs := make([]*models.RowError, 0)

	for {
		start := cr.InputOffset()
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		content := strings.Trim(string(data[start:cr.InputOffset()]), "\r\n")

		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, nil, fmt.Errorf("reading record: %w", err)
			}
			rowErrs = append(rowErrs, &models.RowError{
				Line:    pe.StartLine,
				Content: content,
				Reason:  pe.Err.Error(),
			})
			continue
		}

		if isBlankRecord(rec) {
			continue
		}

		if len(rec) != width {
			line, _ := cr.FieldPos(0)
			rowErrs = append(rowErrs, &models.RowError{
				Line:    line,
				Content: content,
				Reason:  "wrong column count: expected " + strconv.Itoa(width) + " fields, got " + strconv.Itoa(len(rec)),
			})
			continue
		}

		if dropIndex {
			rec = rec[1:]
		}
		raw = append(raw, rec)
	}

	return buildFrame(header, raw), rowErrs, nil
}

// isBlankRecord reports a line holding nothing but whitespace. encoding/csv
// only skips lines that are completely empty.
func isBlankRecord(rec []string) bool {
	return len(rec) == 1 && strings.TrimSpace(rec[0]) == ""
}

// buildFrame infers a type per column and converts every cell.
func buildFrame(header []string, raw [][]string) *models.Frame {
	frame := models.NewFrame(header...)

	column := make([]string, len(raw))
	for c := range frame.Columns {
		for r, rec := range raw {
			column[r] = rec[c]
		}
		frame.Columns[c].Type = InferColumnType(column)
	}

	frame.Rows = make([]models.Row, len(raw))
	for r, rec := range raw {
		row := make(models.Row, len(rec))
		for c, v := range rec {
			row[c] = ParseValue(v, frame.Columns[c].Type)
		}
		frame.Rows[r] = row
	}
	return frame
}

// Encode writes the frame with a synthetic index column in front.
func (p *FrameParser) Encode(w io.Writer, frame *models.Frame) error {
	cw := csv.NewWriter(w)

	header := append([]string{""}, frame.ColumnNames()...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	rec := make([]string, len(header))
	for i, row := range frame.Rows {
		if len(row) != len(frame.Columns) {
			return fmt.Errorf("row %d has %d cells, frame has %d columns", i, len(row), len(frame.Columns))
		}
		rec[0] = strconv.Itoa(i)
		for c, v := range row {
			rec[c+1] = FormatValue(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// EncodeBytes is Encode into a fresh buffer.
func (p *FrameParser) EncodeBytes(frame *models.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Encode(&buf, frame); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
