// Package kfmt implements the kernel's diagnostic output: an allocation-free
// Printf, an early ring buffer that holds output until a sink is attached,
// per-subsystem line prefixes and the kernel panic routine.
package kfmt

import (
	"io"
	"unsafe"
)

// numBufSize bounds the formatted width of a single integer, including any
// padding and the sign.
const numBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	digits = "0123456789abcdef"

	// numBuf is filled right-to-left by fmtInt.
	numBuf [numBufSize]byte

	// singleByte is a shared one-byte buffer for emitting format text and
	// string arguments without converting them to slices.
	singleByte = []byte(" ")

	// earlyPrintBuffer collects Printf output while no sink is attached.
	earlyPrintBuffer ringBuffer

	// outputSink receives Printf output. A nil sink redirects output to
	// earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink directs subsequent Printf output to w and drains any output
// buffered before w was attached into it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the currently attached sink, or nil if output is
// still being buffered.
func GetOutputSink() io.Writer {
	return outputSink
}

// Console is an io.Writer that forwards to the currently attached sink, or to
// the early print buffer while no sink is attached. Writers created before
// SetOutputSink is called can wrap it to follow the sink once it appears.
type Console struct{}

// Write implements io.Writer.
func (Console) Write(p []byte) (int, error) {
	doWrite(outputSink, p)
	return len(p), nil
}

// Printf is a minimal, allocation-free Printf that is safe to call before the
// Go allocator is available. It supports the following verbs, each with an
// optional decimal width:
//
//	%s  string or []byte, left-padded with spaces
//	%d  base 10 integer, left-padded with spaces
//	%o  base 8 integer, left-padded with zeroes
//	%x  base 16 integer (lower-case), left-padded with zeroes
//	%t  bool
//	%%  a literal percent sign
//
// Arguments are matched by type switch only; fmt.Stringer is not consulted and
// %p is not supported since both would pull in reflection.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		width    int
		verb     byte
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			writeByte(w, format[i])
			continue
		}

		width = 0
		for i++; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			doWrite(w, errNoVerb)
			break
		}

		verb = format[i]
		switch verb {
		case '%':
			writeByte(w, '%')
			continue
		case 'd', 'o', 'x', 's', 't':
		default:
			doWrite(w, errNoVerb)
			continue
		}

		if argIndex >= len(args) {
			doWrite(w, errMissingArg)
			continue
		}

		switch verb {
		case 'd':
			fmtInt(w, args[argIndex], 10, width)
		case 'o':
			fmtInt(w, args[argIndex], 8, width)
		case 'x':
			fmtInt(w, args[argIndex], 16, width)
		case 's':
			fmtString(w, args[argIndex], width)
		case 't':
			fmtBool(w, args[argIndex])
		}
		argIndex++
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case b:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

func fmtString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		writeRepeat(w, ' ', width-len(s))
		// s[i:j] would be converted to a heap-allocated slice.
		for i := 0; i < len(s); i++ {
			writeByte(w, s[i])
		}
	case []byte:
		writeRepeat(w, ' ', width-len(s))
		doWrite(w, s)
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtInt writes v in the requested base. Decimal values are padded with
// spaces and the sign sits next to the first digit; octal and hex values are
// padded with zeroes and the sign precedes the padding.
func fmtInt(w io.Writer, v interface{}, base uint64, width int) {
	mag, negative, ok := magnitude(v)
	if !ok {
		doWrite(w, errWrongArgType)
		return
	}

	if width > numBufSize {
		width = numBufSize
	}

	pos := numBufSize
	for {
		pos--
		numBuf[pos] = digits[mag%base]
		mag /= base
		if mag == 0 {
			break
		}
	}

	if base == 10 {
		if negative {
			pos--
			numBuf[pos] = '-'
		}
		for numBufSize-pos < width {
			pos--
			numBuf[pos] = ' '
		}
	} else {
		padTo := width
		if negative {
			padTo--
		}
		for numBufSize-pos < padTo {
			pos--
			numBuf[pos] = '0'
		}
		if negative {
			pos--
			numBuf[pos] = '-'
		}
	}

	doWrite(w, numBuf[pos:])
}

// magnitude returns the absolute value of any built-in integer type and
// whether it was negative.
func magnitude(v interface{}) (uint64, bool, bool) {
	var sval int64

	switch t := v.(type) {
	case uint8:
		return uint64(t), false, true
	case uint16:
		return uint64(t), false, true
	case uint32:
		return uint64(t), false, true
	case uint64:
		return t, false, true
	case uint:
		return uint64(t), false, true
	case uintptr:
		return uint64(t), false, true
	case int8:
		sval = int64(t)
	case int16:
		sval = int64(t)
	case int32:
		sval = int64(t)
	case int64:
		sval = t
	case int:
		sval = int64(t)
	default:
		return 0, false, false
	}

	if sval < 0 {
		// -MinInt64 wraps to itself, which still converts to 1<<63.
		return uint64(-sval), true, true
	}
	return uint64(sval), false, true
}

func writeByte(w io.Writer, b byte) {
	singleByte[0] = b
	doWrite(w, singleByte)
}

func writeRepeat(w io.Writer, b byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, b)
	}
}

// doWrite hides p from escape analysis. Without it the compiler cannot prove
// that p does not escape through the io.Writer call and boxes every Printf
// argument on the heap, which crashes the kernel if Printf runs before the
// allocator is initialized.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis (see runtime/stubs.go).
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
