package protocol

import (
	"testing"
)

func scanAll(t *testing.T, data []byte) (consumed int, complete bool) {
	t.Helper()
	var s frameScanner
	n := s.feed(data)
	return n, s.complete
}

func TestFrameScannerSimpleObject(t *testing.T) {
	data := []byte(`{"type":"ping"}`)
	n, complete := scanAll(t, data)
	if !complete {
		t.Fatal("scanner did not complete on a balanced object")
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
}

func TestFrameScannerBracesInsideStrings(t *testing.T) {
	// Unbalanced brace characters inside string content must not be
	// counted as structure.
	cases := []string{
		`{"type":"x","params":{"note":"a { b"}}`,
		`{"msg":"}}}}"}`,
		`{"msg":"{{{["}`,
		`{"a":"]","b":["["]}`,
	}
	for _, tc := range cases {
		n, complete := scanAll(t, []byte(tc))
		if !complete {
			t.Errorf("%s: scanner did not complete", tc)
			continue
		}
		if n != len(tc) {
			t.Errorf("%s: consumed %d bytes, want %d", tc, n, len(tc))
		}
	}
}

func TestFrameScannerEscapedQuotes(t *testing.T) {
	// The \" must not close the string; the { after it is content.
	data := []byte(`{"msg":"he said \"hi\" {"}`)
	n, complete := scanAll(t, data)
	if !complete {
		t.Fatal("scanner did not complete with escaped quotes")
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
}

func TestFrameScannerEscapedBackslashBeforeQuote(t *testing.T) {
	// "c:\\" ends the string after the escaped backslash — the quote
	// really is a closing quote here.
	data := []byte(`{"path":"c:\\","x":1}`)
	n, complete := scanAll(t, data)
	if !complete {
		t.Fatal("scanner did not complete after escaped backslash")
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
}

func TestFrameScannerIncomplete(t *testing.T) {
	var s frameScanner
	s.feed([]byte(`{"type":"x","params":{"a":1`))
	if s.complete {
		t.Fatal("scanner completed on a truncated frame")
	}
}

func TestFrameScannerResumesAcrossChunks(t *testing.T) {
	full := `{"type":"x","params":{"note":"a { b","n":[1,2,3]}}`
	// Feed one byte at a time, as the worst-case TCP delivery.
	var s frameScanner
	total := 0
	for i := 0; i < len(full); i++ {
		total += s.feed([]byte{full[i]})
		if s.complete && i != len(full)-1 {
			t.Fatalf("scanner completed early at byte %d", i)
		}
	}
	if !s.complete {
		t.Fatal("scanner never completed")
	}
	if total != len(full) {
		t.Errorf("consumed %d bytes, want %d", total, len(full))
	}
}

func TestFrameScannerStopsAtFrameBoundary(t *testing.T) {
	// Two back-to-back frames: the scanner must stop exactly at the
	// end of the first.
	first := `{"status":"success","result":{}}`
	second := `{"status":"error","message":"x"}`
	n, complete := scanAll(t, []byte(first+second))
	if !complete {
		t.Fatal("scanner did not complete")
	}
	if n != len(first) {
		t.Errorf("consumed %d bytes, want %d (first frame only)", n, len(first))
	}
}

func TestFrameScannerLeadingWhitespace(t *testing.T) {
	data := []byte("  \r\n\t{\"a\":1}")
	n, complete := scanAll(t, data)
	if !complete {
		t.Fatal("scanner did not complete with leading whitespace")
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
}

func TestFrameScannerRejectsScalarStream(t *testing.T) {
	var s frameScanner
	s.feed([]byte(`true`))
	if !s.badByte {
		t.Fatal("scanner accepted a top-level scalar, which can never frame")
	}
}

func TestFrameScannerTopLevelArray(t *testing.T) {
	data := []byte(`[1,2,{"a":"}"}]`)
	n, complete := scanAll(t, data)
	if !complete {
		t.Fatal("scanner did not complete on a top-level array")
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
}
