// Package catproto implements the wire protocol the engine speaks to the
// external categorizer-program: alternating null-terminated path/size
// fields on stdin, a single category token on stdout (spec.md §6).
package catproto

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"seedcurator/internal/category"
)

// Encode writes bag to w as alternating null-terminated fields
// "path\0size\0...".
func Encode(w io.Writer, bag category.Bag) error {
	buf := bufio.NewWriter(w)
	for _, r := range bag {
		if _, err := buf.WriteString(r.Path); err != nil {
			return err
		}
		if err := buf.WriteByte(0); err != nil {
			return err
		}
		if _, err := buf.WriteString(strconv.FormatInt(r.Size, 10)); err != nil {
			return err
		}
		if err := buf.WriteByte(0); err != nil {
			return err
		}
	}
	return buf.Flush()
}

// Decode reads alternating null-terminated path/size fields from r into a
// Bag. A field pair whose size is not a valid integer is dropped with a
// diagnostic written to diag (typically os.Stderr); decoding continues on
// the remainder.
func Decode(r io.Reader, diag io.Writer) (category.Bag, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("catproto: read stdin: %w", err)
	}
	fields := bytes.Split(data, []byte{0})
	// A trailing empty field follows the final null terminator.
	if len(fields) > 0 && len(fields[len(fields)-1]) == 0 {
		fields = fields[:len(fields)-1]
	}
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("catproto: odd number of fields on stdin")
	}

	var bag category.Bag
	for i := 0; i < len(fields); i += 2 {
		path := string(fields[i])
		sizeField := string(fields[i+1])
		size, err := strconv.ParseInt(sizeField, 10, 64)
		if err != nil {
			fmt.Fprintf(diag, "catproto: dropping malformed record %q (size=%q): %v\n", path, sizeField, err)
			continue
		}
		bag = append(bag, category.Record{Path: path, Size: size})
	}
	return bag, nil
}

// ParseCategory validates that token is one of the five closed categories.
func ParseCategory(token string) (category.Category, error) {
	c := category.Category(token)
	if !c.Valid() {
		return "", fmt.Errorf("catproto: %q is not a valid category", token)
	}
	return c, nil
}
