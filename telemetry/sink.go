package telemetry

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Sink is a line oriented destination for records
type Sink interface {
	WriteLine(line string) error
}

// WriterSink writes newline terminated lines to an io.Writer
type WriterSink struct {
	w io.Writer
}

// NewWriterSink creates a sink on top of w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WriteLine writes line followed by a newline
func (s *WriterSink) WriteLine(line string) error {
	_, err := io.WriteString(s.w, line+"\n")
	return err
}

// FileSink is the telemetry log file. It announces itself when opened and closed.
type FileSink struct {
	WriterSink
	path string
	file *os.File
}

// OpenFileSink creates (or truncates) the log file at path
func OpenFileSink(path string) (*FileSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSinkUnavailable, path, err)
	}

	sink := &FileSink{
		WriterSink: WriterSink{w: file},
		path:       path,
		file:       file,
	}
	if err := sink.WriteLine("Log opened"); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrSinkUnavailable, path, err)
	}

	return sink, nil
}

// Path returns the file location
func (s *FileSink) Path() string {
	return s.path
}

// Close writes the closing banner and closes the file. Calling it twice is a no-op.
func (s *FileSink) Close() error {
	if s.file == nil {
		return nil
	}
	werr := s.WriteLine("Log ended")
	err := s.file.Close()
	s.file = nil
	s.w = io.Discard
	return errors.Join(werr, err)
}
