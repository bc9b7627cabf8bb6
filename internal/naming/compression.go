package naming

import (
	"fmt"
	"strings"
)

// Compression selects the tar filter and the archive extension.
type Compression int

const (
	None Compression = iota
	Gzip
	Bzip2
	XZ
)

var compressionModes = map[Compression]struct {
	name string
	flag string
	ext  string
}{
	// tar needs an argument in the filter slot; without compression it is one
	// more --verbose.
	None:  {name: "none", flag: "--verbose", ext: "tar"},
	Gzip:  {name: "gzip", flag: "--gzip", ext: "tar.gz"},
	Bzip2: {name: "bzip2", flag: "--bzip2", ext: "tar.bz2"},
	XZ:    {name: "xz", flag: "--xz", ext: "tar.xz"},
}

func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "bzip2", "bz2":
		return Bzip2, nil
	case "xz":
		return XZ, nil
	}
	return None, fmt.Errorf("unknown compression mode %q", s)
}

func (c Compression) String() string {
	if m, ok := compressionModes[c]; ok {
		return m.name
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// Flag is the tar option that selects the filter.
func (c Compression) Flag() string {
	return compressionModes[c].flag
}

// Ext is the archive file extension without the leading dot.
func (c Compression) Ext() string {
	return compressionModes[c].ext
}

func (c Compression) MarshalText() ([]byte, error) {
	if _, ok := compressionModes[c]; !ok {
		return nil, fmt.Errorf("invalid compression mode %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Compression) UnmarshalText(text []byte) error {
	parsed, err := ParseCompression(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
