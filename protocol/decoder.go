package protocol

import (
	"fmt"
)

// FramingError reports a frame that could not be decoded. It is localized to
// the offending frame: the decoder resynchronizes and later frames are
// unaffected.
type FramingError struct {
	Cause   error
	Message string
	Frame   string
}

func (e *FramingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("framing error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("framing error: %s", e.Message)
}

func (e *FramingError) Unwrap() error {
	return e.Cause
}

// Frame is one decoder output: either a decoded event or a FramingError for a
// frame that occupied a complete top-level value but failed to decode.
type Frame struct {
	Event *RunEvent
	Err   error
}

// Decoder incrementally extracts complete protocol frames from a chunked
// byte stream. Chunk boundaries carry no meaning: a frame may be split at any
// byte offset, including inside a multi-byte UTF-8 sequence or a long
// literal. Feed may be called any number of times; each call returns the
// frames completed by that chunk, in arrival order.
//
// The zero value is ready to use. Decoder is not safe for concurrent use.
type Decoder struct {
	buf   []byte
	start int // offset of the current top-level value, -1 between values

	depth    int
	inString bool
	escaped  bool
}

// NewDecoder returns a decoder with empty state.
func NewDecoder() *Decoder {
	return &Decoder{start: -1}
}

// Reset discards all buffered data and scanning state.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.start = -1
	d.depth = 0
	d.inString = false
	d.escaped = false
}

// Feed appends a chunk and returns every frame completed by it. Broken
// frames are returned as Frame values carrying a FramingError; decoding
// resumes from the next top-level boundary.
func (d *Decoder) Feed(chunk []byte) []Frame {
	scanFrom := len(d.buf)
	d.buf = append(d.buf, chunk...)

	var frames []Frame
	for i := scanFrom; i < len(d.buf); i++ {
		c := d.buf[i]

		if d.start < 0 {
			// Between values: resynchronize on the next opening bracket.
			// Separators and any garbage left by a broken frame are skipped.
			if c == '{' || c == '[' {
				d.start = i
				d.depth = 1
			}
			continue
		}

		if d.inString {
			switch {
			case d.escaped:
				d.escaped = false
			case c == '\\':
				d.escaped = true
			case c == '"':
				d.inString = false
			}
			continue
		}

		switch c {
		case '"':
			d.inString = true
		case '{', '[':
			d.depth++
		case '}', ']':
			d.depth--
			if d.depth == 0 {
				frames = append(frames, d.complete(d.buf[d.start:i+1]))
				d.start = -1
			}
		}
	}

	// Compact consumed bytes once no value is in progress.
	if d.start < 0 {
		d.buf = d.buf[:0]
	} else if d.start > 0 {
		d.buf = append(d.buf[:0], d.buf[d.start:]...)
		d.start = 0
	}

	return frames
}

// Finalize flushes the decoder. It fails with a FramingError when
// unterminated frame data remains buffered.
func (d *Decoder) Finalize() error {
	if d.start >= 0 {
		err := &FramingError{
			Message: "stream ended mid-frame",
			Frame:   string(d.buf[d.start:]),
		}
		d.Reset()
		return err
	}
	d.Reset()
	return nil
}

// complete decodes one balanced top-level value into a Frame.
func (d *Decoder) complete(raw []byte) Frame {
	ev, err := ParseFrame(raw)
	if err != nil {
		return Frame{Err: &FramingError{
			Message: "undecodable frame",
			Frame:   string(raw),
			Cause:   err,
		}}
	}
	return Frame{Event: ev}
}
