package run

import (
	"bytes"
	"io"
	"os"
	"testing"
)

func Example_prefixWriter() {
	pw := newPrefixWriterString(os.Stdout, "cargo: ")
	io.WriteString(pw, "Compiling serde")
	io.WriteString(pw, " v1.0.200\n")
	io.WriteString(pw, "Compiling app v0.1.0\nFinished")
	// Output:
	// cargo: Compiling serde v1.0.200
	// cargo: Compiling app v0.1.0
	// cargo: Finished
}

func TestPrefixWriter_byteWise(t *testing.T) {
	var buf bytes.Buffer
	pw := newPrefixWriterString(&buf, "| ")
	for _, c := range []byte("a\nbc\n") {
		n, err := pw.Write([]byte{c})
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("wrote %d bytes", n)
		}
	}
	if got := buf.String(); got != "| a\n| bc\n" {
		t.Errorf("wrote %q", got)
	}
}

func TestPrefixWriter_emptyWrite(t *testing.T) {
	var buf bytes.Buffer
	pw := newPrefixWriterString(&buf, "| ")
	if n, err := pw.Write(nil); n != 0 || err != nil {
		t.Errorf("n=%d err=%v", n, err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q", buf.String())
	}
}
