package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
)

// ScanFrame extracts the next frame from a stream and reports its
// detected format. Interframe whitespace is skipped. Plain text lines
// are returned with FormatUnknown for the session classifier.
func ScanFrame(r *bufio.Reader) ([]byte, message.Format, error) {
	if err := skipInterframe(r); err != nil {
		return nil, message.FormatUnknown, err
	}
	head, err := r.Peek(1)
	if err != nil {
		return nil, message.FormatUnknown, err
	}
	switch head[0] {
	case '{':
		return scanMT(r)
	case '<':
		return scanMX(r)
	default:
		return scanTextLine(r)
	}
}

func skipInterframe(r *bufio.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
		default:
			return r.UnreadByte()
		}
	}
}

// scanMT consumes consecutive blocks while their identifiers ascend.
// A following block with a lower or equal identifier begins the next
// frame.
func scanMT(r *bufio.Reader) ([]byte, message.Format, error) {
	var buf bytes.Buffer
	lastID := byte(0)
	for {
		head, err := r.Peek(2)
		if err != nil || head[0] != '{' {
			break
		}
		id := head[1]
		if id < '1' || id > '5' || id <= lastID {
			break
		}
		if err := consumeBlock(&buf, r); err != nil {
			return nil, message.FormatUnknown, err
		}
		lastID = id
	}
	if buf.Len() == 0 {
		return nil, message.FormatUnknown, fmt.Errorf("%w: empty frame", ErrMalformed)
	}
	return buf.Bytes(), message.FormatMT, nil
}

func consumeBlock(buf *bytes.Buffer, r *bufio.Reader) error {
	depth := 0
	for {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: unterminated block", ErrMalformed)
			}
			return err
		}
		buf.WriteByte(c)
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}

// scanMX consumes one XML document by tracking element nesting from
// the root element to its close tag.
func scanMX(r *bufio.Reader) ([]byte, message.Format, error) {
	var buf bytes.Buffer
	depth := 0
	started := false
	for !started || depth > 0 {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, message.FormatUnknown, fmt.Errorf("%w: unterminated document", ErrMalformed)
			}
			return nil, message.FormatUnknown, err
		}
		buf.WriteByte(c)
		if c != '<' {
			continue
		}
		head, err := r.Peek(1)
		if err != nil {
			return nil, message.FormatUnknown, fmt.Errorf("%w: truncated markup", ErrMalformed)
		}
		switch head[0] {
		case '?':
			err = consumeUntil(&buf, r, "?>")
		case '!':
			err = consumeDeclaration(&buf, r)
		case '/':
			if err = consumeUntil(&buf, r, ">"); err == nil {
				depth--
				if depth < 0 {
					return nil, message.FormatUnknown, fmt.Errorf("%w: close tag before root", ErrMalformed)
				}
			}
		default:
			var selfClosing bool
			selfClosing, err = consumeTag(&buf, r)
			if err == nil {
				started = true
				if !selfClosing {
					depth++
				}
			}
		}
		if err != nil {
			return nil, message.FormatUnknown, err
		}
	}
	return buf.Bytes(), message.FormatMX, nil
}

// consumeDeclaration handles comments, CDATA sections and doctype
// declarations, none of which affect element nesting. The reader is
// positioned on the "!" after the opening "<".
func consumeDeclaration(buf *bytes.Buffer, r *bufio.Reader) error {
	head, _ := r.Peek(4)
	switch {
	case len(head) >= 3 && string(head[1:3]) == "--":
		return consumeUntil(buf, r, "-->")
	case len(head) >= 4 && string(head[1:4]) == "[CD":
		return consumeUntil(buf, r, "]]>")
	default:
		return consumeUntil(buf, r, ">")
	}
}

func consumeUntil(buf *bytes.Buffer, r *bufio.Reader, end string) error {
	for {
		c, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: unterminated markup", ErrMalformed)
		}
		buf.WriteByte(c)
		if bytes.HasSuffix(buf.Bytes(), []byte(end)) {
			return nil
		}
	}
}

// consumeTag reads an element tag through its closing ">", honoring
// quoted attribute values, and reports whether it was self-closing.
func consumeTag(buf *bytes.Buffer, r *bufio.Reader) (bool, error) {
	var prev, quote byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return false, fmt.Errorf("%w: unterminated tag", ErrMalformed)
		}
		buf.WriteByte(c)
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			prev = c
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '>':
			return prev == '/', nil
		}
		prev = c
	}
}

// scanTextLine returns one bare line for endpoints that answer session
// control in plain text.
func scanTextLine(r *bufio.Reader) ([]byte, message.Format, error) {
	line, err := r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return nil, message.FormatUnknown, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), message.FormatUnknown, nil
}
