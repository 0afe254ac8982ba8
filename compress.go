/*
 * compress.go, part of gocmiles.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
package chem

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

//compressions maps the supported compression suffixes to functions returning
//decompressing readers and compressing writers.
var compressions = map[string]struct {
	reader func(io.Reader) (io.ReadCloser, error)
	writer func(io.Writer) (io.WriteCloser, error)
}{
	".gz": {
		reader: func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) },
		writer: func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(a), nil },
	},
	".zst": {
		reader: func(a io.Reader) (io.ReadCloser, error) {
			r, err := zstd.NewReader(a)
			if err != nil {
				return nil, err
			}
			return zstdCloser{r}, nil
		},
		writer: func(a io.Writer) (io.WriteCloser, error) { return zstd.NewWriter(a) },
	},
	".xz": {
		reader: func(a io.Reader) (io.ReadCloser, error) {
			r, err := xz.NewReader(a)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(r), nil
		},
		writer: func(a io.Writer) (io.WriteCloser, error) { return xz.NewWriter(a) },
	},
}

//*zstd.Decoder's Close doesn't return an error, so it is not an io.ReadCloser.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

//Extension returns the extension of name, lower-cased, including the dot. If the
//extension is a compression suffix (.gz, .zst or .xz) the previous extension
//is prepended, so "a.sdf.gz" gives ".sdf.gz". A name without extension gives an
//empty string.
func Extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := compressions[ext]; ok {
		base := strings.TrimSuffix(name, name[len(name)-len(ext):])
		ext = strings.ToLower(filepath.Ext(base)) + ext
	}
	return ext
}

//SplitExtension returns the format extension and the compression suffix of ext, as
//returned by Extension. The latter is empty for uncompressed files.
func SplitExtension(ext string) (format, compression string) {
	for c := range compressions {
		if strings.HasSuffix(ext, c) {
			return strings.TrimSuffix(ext, c), c
		}
	}
	return ext, ""
}

//readCloser closes both the decompressor and the file under it.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r readCloser) Close() error {
	var err error
	for _, c := range r.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

//Open opens name for reading, decompressing it on the fly if its extension is
//a compression suffix.
func Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	_, c := SplitExtension(Extension(name))
	if c == "" {
		return f, nil
	}
	d, err := compressions[c].reader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return readCloser{Reader: d, closers: []io.Closer{d, f}}, nil
}

//writeCloser closes the compressor first, so it can flush, and then the file.
type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w writeCloser) Close() error {
	var err error
	for _, c := range w.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

//Create creates name for writing, compressing it if its extension is a compression
//suffix. Closing the returned writer flushes the compressor and closes the file.
func Create(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	_, c := SplitExtension(Extension(name))
	if c == "" {
		return f, nil
	}
	z, err := compressions[c].writer(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return writeCloser{Writer: z, closers: []io.Closer{z, f}}, nil
}
