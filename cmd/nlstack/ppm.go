/*
DESCRIPTION
  ppm.go reads and writes the binary PPM (P6) frames used by nlstack as a
  stand-in for the camera/codec layer the core stacking engine does not
  own.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// readPPM reads a binary (P6) PPM file and returns its interleaved 8-bit
// RGB pixel data along with its dimensions.
func readPPM(path string) (rgb []byte, width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic, err := readToken(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: could not read magic number: %w", path, err)
	}
	if magic != "P6" {
		return nil, 0, 0, fmt.Errorf("%s: not a binary PPM (magic %q)", path, magic)
	}

	width, err = readIntToken(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: could not read width: %w", path, err)
	}
	height, err = readIntToken(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: could not read height: %w", path, err)
	}
	maxVal, err := readIntToken(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: could not read max value: %w", path, err)
	}
	if maxVal != 255 {
		return nil, 0, 0, fmt.Errorf("%s: unsupported max value %d", path, maxVal)
	}

	rgb = make([]byte, width*height*3)
	if _, err := io.ReadFull(r, rgb); err != nil {
		return nil, 0, 0, fmt.Errorf("%s: short pixel data: %w", path, err)
	}
	return rgb, width, height, nil
}

// writePPM writes rgb (an interleaved width*height*3 8-bit buffer) as a
// binary (P6) PPM file.
func writePPM(path string, rgb []byte, width, height int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", width, height); err != nil {
		return fmt.Errorf("could not write %s header: %w", path, err)
	}
	if _, err := w.Write(rgb); err != nil {
		return fmt.Errorf("could not write %s pixels: %w", path, err)
	}
	return w.Flush()
}

// readToken reads one whitespace-delimited token, skipping '#' comments,
// per the PPM plain-header grammar.
func readToken(r *bufio.Reader) (string, error) {
	var tok []byte
	skippingComment := false
	for {
		b, err := r.ReadByte()
		if err != nil {
			if len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		if skippingComment {
			if b == '\n' {
				skippingComment = false
			}
			continue
		}
		switch {
		case b == '#' && len(tok) == 0:
			skippingComment = true
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}

func readIntToken(r *bufio.Reader) (int, error) {
	tok, err := readToken(r)
	if err != nil {
		return 0, err
	}
	var v int
	if _, err := fmt.Sscanf(tok, "%d", &v); err != nil {
		return 0, fmt.Errorf("invalid integer %q", tok)
	}
	return v, nil
}
