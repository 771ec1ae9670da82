package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"strings"
)

const utf8BOM = "\ufeff"

// Parse turns r into a lazy sequence of rows. The sequence reads r as it is
// iterated, so it can be ranged over once. A parse failure is yielded as the
// final element.
func Parse(r io.Reader, format Format) iter.Seq2[Row, error] {
	switch format {
	case FormatCSV:
		return once(format, func(yield func(Row, error) bool) { parseCSV(r, yield) })
	case FormatJSON:
		return once(format, func(yield func(Row, error) bool) { parseJSON(r, yield) })
	}
	return func(yield func(Row, error) bool) {
		yield(Row{}, &FormatError{Format: format, Err: ErrUnknownFormat})
	}
}

func once(format Format, seq iter.Seq2[Row, error]) iter.Seq2[Row, error] {
	used := false
	return func(yield func(Row, error) bool) {
		if used {
			yield(Row{}, &FormatError{Format: format, Err: ErrConsumed})
			return
		}
		used = true
		seq(yield)
	}
}

func parseCSV(r io.Reader, yield func(Row, error) bool) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		yield(Row{}, &FormatError{Format: FormatCSV, Line: 1, Err: ErrEmptyInput})
		return
	}
	if err != nil {
		yield(Row{}, csvError(err))
		return
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(Row{}, csvError(err))
			return
		}

		line, _ := cr.FieldPos(0)
		rec := make(Record, len(header))
		for i, name := range header {
			if name == "" || i >= len(fields) {
				continue
			}
			rec[name] = fields[i]
		}
		if !yield(Row{Line: line, Record: rec}, nil) {
			return
		}
	}
}

func csvError(err error) *FormatError {
	fe := &FormatError{Format: FormatCSV, Err: err}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		fe.Line = pe.Line
	}
	return fe
}

func parseJSON(r io.Reader, yield func(Row, error) bool) {
	data, err := io.ReadAll(skipBOM(r))
	if err != nil {
		yield(Row{}, &FormatError{Format: FormatJSON, Err: err})
		return
	}
	if !json.Valid(data) {
		yield(Row{}, &FormatError{Format: FormatJSON, Err: ErrMalformed})
		return
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		yield(Row{}, &FormatError{Format: FormatJSON, Err: err})
		return
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		yield(Row{}, &FormatError{Format: FormatJSON, Err: ErrNotArray})
		return
	}

	for i := 1; dec.More(); i++ {
		var v any
		if err := dec.Decode(&v); err != nil {
			yield(Row{}, &FormatError{Format: FormatJSON, Line: i, Err: err})
			return
		}
		obj, ok := v.(map[string]any)
		if !ok {
			yield(Row{}, &FormatError{Format: FormatJSON, Line: i, Err: ErrNotObject})
			return
		}
		rec := make(Record, len(obj))
		for k, val := range obj {
			rec[k] = stringify(val)
		}
		if !yield(Row{Line: i, Record: rec}, nil) {
			return
		}
	}
}

// stringify renders a decoded JSON value as a field value. Values that are
// falsy in JavaScript (null, false, 0, "") become the empty string so they
// fail required field checks the same way a missing field does.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return ""
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
