package parser

import (
	"time"

	"taxtally/deductions/internal/logging"
)

// Clock returns the current time. Grammars that fall back to "today" or
// "this year" read it through a Clock so tests stay deterministic.
type Clock func() time.Time

// BaseParser carries what every grammar needs. Parsers embed it:
//
//	type Parser struct {
//		parser.BaseParser
//	}
type BaseParser struct {
	logger logging.Logger
	clock  Clock
}

// NewBaseParser creates a BaseParser. A nil logger gets a default logrus
// logger and a nil clock uses time.Now.
func NewBaseParser(logger logging.Logger, clock Clock) BaseParser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if clock == nil {
		clock = time.Now
	}
	return BaseParser{logger: logger, clock: clock}
}

// GetLogger returns the parser's logger.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// Now returns the parser clock's current time.
func (b *BaseParser) Now() time.Time {
	return b.clock()
}
