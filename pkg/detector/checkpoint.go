/*
 *     Copyright 2025 The CNAI Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package detector

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	humanize "github.com/dustin/go-humanize"
)

const (
	// pickleEntry is the structure stream inside a zip based torch checkpoint.
	pickleEntry = "data.pkl"

	// maxPickleSize bounds how much of the structure stream is read.
	maxPickleSize = 512 * humanize.MiByte
)

var runtimeVersionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?`)

// Checkpoint is the structural summary of a serialized model checkpoint.
type Checkpoint struct {
	// Strings are the string constants of the structure stream, in order.
	Strings []string

	// Globals are the module.Name class references of the structure stream.
	Globals []string
}

// Config returns the searchable text of the embedded model configuration.
func (c *Checkpoint) Config() string {
	return strings.Join(append(append([]string{}, c.Strings...), c.Globals...), "\n")
}

// ModelClass returns the name of the serialized model class, if any.
func (c *Checkpoint) ModelClass() string {
	for _, g := range c.Globals {
		name := g[strings.LastIndex(g, ".")+1:]
		if strings.HasSuffix(name, "Model") {
			return name
		}
	}

	return ""
}

// TrainVersion returns the runtime version recorded at training time, if any.
func (c *Checkpoint) TrainVersion() string {
	for i := 0; i+1 < len(c.Strings); i++ {
		if c.Strings[i] == "version" && runtimeVersionPattern.MatchString(c.Strings[i+1]) {
			return c.Strings[i+1]
		}
	}

	return ""
}

// Loader deserializes the structure of a checkpoint file.
type Loader func(name string) (*Checkpoint, error)

// LoadCheckpoint reads a zip based torch checkpoint and walks its pickle
// stream without executing it.
func LoadCheckpoint(name string) (*Checkpoint, error) {
	zr, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint archive %s: %w", name, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if path.Base(f.Name) != pickleEntry {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPickleSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}

		return parsePickle(data)
	}

	return nil, fmt.Errorf("checkpoint archive %s has no %s", name, pickleEntry)
}

// Pickle opcodes that carry data modlink cares about or a variable sized argument.
const (
	opStop            = '.'
	opGlobal          = 'c'
	opInst            = 'i'
	opString          = 'S'
	opUnicode         = 'V'
	opInt             = 'I'
	opLong            = 'L'
	opFloat           = 'F'
	opPersID          = 'P'
	opGet             = 'g'
	opPut             = 'p'
	opShortBinString  = 'U'
	opBinString       = 'T'
	opShortBinBytes   = 'C'
	opBinBytes        = 'B'
	opBinUnicode      = 'X'
	opShortBinUnicode = 0x8c
	opBinUnicode8     = 0x8d
	opBinBytes8       = 0x8e
	opByteArray8      = 0x96
	opLong1           = 0x8a
	opLong4           = 0x8b
	opStackGlobal     = 0x93
)

// fixedArgs lists the remaining opcodes by the size of their argument.
var fixedArgs = map[byte]int{
	'(': 0, '0': 0, '1': 0, '2': 0, 'N': 0, 'Q': 0, 'R': 0, 'a': 0, 'b': 0,
	'd': 0, '}': 0, 'e': 0, 'l': 0, ']': 0, 'o': 0, 's': 0, 't': 0, ')': 0,
	'u': 0, 0x81: 0, 0x85: 0, 0x86: 0, 0x87: 0, 0x88: 0, 0x89: 0, 0x8f: 0,
	0x90: 0, 0x91: 0, 0x92: 0, 0x94: 0, 0x97: 0, 0x98: 0,
	'K': 1, 'q': 1, 'h': 1, 0x80: 1, 0x82: 1,
	'M': 2, 0x83: 2,
	'J': 4, 'r': 4, 'j': 4, 0x84: 4,
	'G': 8, 0x95: 8,
}

type pickleReader struct {
	data []byte
	pos  int
}

func (r *pickleReader) next(n uint64) ([]byte, error) {
	if n > uint64(len(r.data)-r.pos) {
		return nil, io.ErrUnexpectedEOF
	}

	b := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *pickleReader) size(width int) (uint64, error) {
	b, err := r.next(uint64(width))
	if err != nil {
		return 0, err
	}

	switch width {
	case 1:
		return uint64(b[0]), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	default:
		return binary.LittleEndian.Uint64(b), nil
	}
}

func (r *pickleReader) sized(width int) ([]byte, error) {
	n, err := r.size(width)
	if err != nil {
		return nil, err
	}

	return r.next(n)
}

func (r *pickleReader) line() (string, error) {
	i := bytes.IndexByte(r.data[r.pos:], '\n')
	if i < 0 {
		return "", io.ErrUnexpectedEOF
	}

	s := string(r.data[r.pos : r.pos+i])
	r.pos += i + 1
	return s, nil
}

// parsePickle walks a pickle stream opcode by opcode and collects its
// strings and class references.
func parsePickle(data []byte) (*Checkpoint, error) {
	ckpt := &Checkpoint{}
	r := &pickleReader{data: data}

	for {
		raw, err := r.next(1)
		if err != nil {
			return nil, errors.New("truncated pickle stream: missing STOP opcode")
		}

		op := raw[0]
		switch op {
		case opStop:
			return ckpt, nil

		case opShortBinUnicode, opShortBinString:
			b, err := r.sized(1)
			if err != nil {
				return nil, truncated(op, r.pos)
			}
			ckpt.Strings = append(ckpt.Strings, string(b))

		case opBinUnicode, opBinString:
			b, err := r.sized(4)
			if err != nil {
				return nil, truncated(op, r.pos)
			}
			ckpt.Strings = append(ckpt.Strings, string(b))

		case opBinUnicode8:
			b, err := r.sized(8)
			if err != nil {
				return nil, truncated(op, r.pos)
			}
			ckpt.Strings = append(ckpt.Strings, string(b))

		case opShortBinBytes, opLong1:
			if _, err := r.sized(1); err != nil {
				return nil, truncated(op, r.pos)
			}

		case opBinBytes, opLong4:
			if _, err := r.sized(4); err != nil {
				return nil, truncated(op, r.pos)
			}

		case opBinBytes8, opByteArray8:
			if _, err := r.sized(8); err != nil {
				return nil, truncated(op, r.pos)
			}

		case opGlobal, opInst:
			module, err := r.line()
			if err != nil {
				return nil, truncated(op, r.pos)
			}
			name, err := r.line()
			if err != nil {
				return nil, truncated(op, r.pos)
			}
			ckpt.Globals = append(ckpt.Globals, module+"."+name)

		case opString, opUnicode:
			s, err := r.line()
			if err != nil {
				return nil, truncated(op, r.pos)
			}
			ckpt.Strings = append(ckpt.Strings, strings.Trim(s, `'"`))

		case opInt, opLong, opFloat, opPersID, opGet, opPut:
			if _, err := r.line(); err != nil {
				return nil, truncated(op, r.pos)
			}

		case opStackGlobal:
			// Module and name are the two most recently pushed strings.
			if n := len(ckpt.Strings); n >= 2 {
				ckpt.Globals = append(ckpt.Globals, ckpt.Strings[n-2]+"."+ckpt.Strings[n-1])
			}

		default:
			n, ok := fixedArgs[op]
			if !ok {
				return nil, fmt.Errorf("unsupported pickle opcode 0x%02x at offset %d", op, r.pos-1)
			}
			if _, err := r.next(uint64(n)); err != nil {
				return nil, truncated(op, r.pos)
			}
		}
	}
}

func truncated(op byte, pos int) error {
	return fmt.Errorf("truncated argument for pickle opcode 0x%02x near offset %d", op, pos)
}
