package kfmt

import (
	"bytes"
	"testing"
)

func TestFprintf(t *testing.T) {
	// mute vet warnings about malformed printf formatting strings
	fprintfn := Fprintf

	specs := []struct {
		fn        func(*bytes.Buffer)
		expOutput string
	}{
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "no args") },
			"no args",
		},
		// bool values
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "%t %t", true, false) },
			"true false",
		},
		// strings and byte slices
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "%s arg", "STRING") },
			"STRING arg",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "%s arg", []byte("BYTE SLICE")) },
			"BYTE SLICE arg",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "'%4s' padded", "ABC") },
			"' ABC' padded",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "'%4s' longer than pad", "ABCDE") },
			"'ABCDE' longer than pad",
		},
		// uints
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "uint arg: %d", uint8(10)) },
			"uint arg: 10",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "uint arg: %o", uint16(0777)) },
			"uint arg: 777",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "uint arg: 0x%x", uint32(0xbadf00d)) },
			"uint arg: 0xbadf00d",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "'%10d'", uint64(123)) },
			"'       123'",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "'0x%10x'", uint64(0xbadf00d)) },
			"'0x000badf00d'",
		},
		// pointers
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "uintptr 0x%x", uintptr(0xb8000)) },
			"uintptr 0xb8000",
		},
		// ints
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "int arg: %d", int8(-10)) },
			"int arg: -10",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "int arg: %x", int32(-0xbadf00d)) },
			"int arg: -badf00d",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "int arg: %d", 128) },
			"int arg: 128",
		},
		// escaped % and format errors
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "100%%") },
			"100%",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "%d") },
			"(MISSING)",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "no verb", 1) },
			"no verb%!(EXTRA)",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "%t", "not a bool") },
			"%!(WRONGTYPE)",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "%d", "not a number") },
			"%!(WRONGTYPE)",
		},
		{
			func(buf *bytes.Buffer) { fprintfn(buf, "%s", 42) },
			"%!(WRONGTYPE)",
		},
	}

	for specIndex, spec := range specs {
		var buf bytes.Buffer
		spec.fn(&buf)

		if got := buf.String(); got != spec.expOutput {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.expOutput, got)
		}
	}
}

func TestPrintfEarlyBuffering(t *testing.T) {
	defer func() {
		outputSink = nil
	}()
	outputSink = nil

	printfn := Printf
	printfn("early %s 0x%x", "output", uint32(0x1234))

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if exp, got := "early output 0x1234", buf.String(); got != exp {
		t.Fatalf("expected early output %q to be replayed to the sink; got %q", exp, got)
	}

	// With a sink installed, output must flow through directly.
	printfn("; more")
	if exp, got := "early output 0x1234; more", buf.String(); got != exp {
		t.Fatalf("expected %q; got %q", exp, got)
	}
}
