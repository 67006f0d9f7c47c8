package importer

import (
	"io"
)

type Service struct {
	parsers map[Format]Importer
}

func NewService() *Service {
	s := &Service{parsers: map[Format]Importer{FormatAuto: NewParser(FormatAuto)}}

	for _, p := range profiles {
		s.parsers[p.Format] = NewParser(p.Format)
	}

	return s
}

// Import parses r using format, or whichever profile matches when format is FormatAuto.
func (s *Service) Import(format Format, r io.Reader) (*Result, error) {
	parser, ok := s.parsers[format]
	if !ok {
		parser = NewParser(format)
	}

	return parser.Parse(r)
}
