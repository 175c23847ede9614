package ioformat

import "fmt"

// OpaqueCodec backs file_format=="file"/"txt": arbitrary payloads moved
// rather than parsed (spec.md §6 "opaque binary files (moved, not
// parsed)"). It never materializes a Grid; callers that declared an
// opaque handle are expected to use dataset.Handle's raw byte path
// instead of Read/Write.
type OpaqueCodec struct{}

func (OpaqueCodec) Ext() string { return "" }

func (OpaqueCodec) Read(path string, _ Meta) (*Grid, error) {
	return nil, fmt.Errorf("ioformat: %s is an opaque file, use the raw byte path instead of Read", path)
}

func (OpaqueCodec) Write(path string, _ *Grid, _ Meta) error {
	return fmt.Errorf("ioformat: %s is an opaque file, use the raw byte path instead of Write", path)
}
