package allocation

import (
	"encoding/csv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"io"
	"math/big"
	"strings"
)

var (
	ErrEmptyAddress = errors.New("empty address")
	ErrEmptyAmount  = errors.New("empty amount")
)

// Row is one validated beneficiary allocation. Amount is already scaled by the
// token decimals.
type Row struct {
	Address string
	Amount  *big.Int
}

// RowSource yields allocation rows until it returns io.EOF.
type RowSource interface {
	Next() (Row, error)
}

// Parser streams allocation rows out of an address,amount CSV. Rows with an
// empty address or amount, or an amount that can not be sent to the contract,
// are skipped and counted. The sequence can be consumed only once.
type Parser struct {
	reader   *csv.Reader
	decimals uint
	skipped  int
	started  bool
	logger   zerolog.Logger
}

func NewParser(r io.Reader, decimals uint, logger zerolog.Logger) *Parser {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	return &Parser{
		reader:   reader,
		decimals: decimals,
		logger:   logger,
	}
}

// Next returns the next valid row, io.EOF once the stream is exhausted, or a
// wrapped read error. A read error is fatal for the whole stream.
func (p *Parser) Next() (Row, error) {
	for {
		record, err := p.reader.Read()
		if err == io.EOF {
			return Row{}, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				p.skip(parseErr.StartLine, err)
				continue
			}
			return Row{}, errors.Wrap(err, "Failed to read allocations")
		}

		if !p.started {
			p.started = true
			// Spreadsheet exports often start with a byte order mark.
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
		}

		row, err := p.parseRecord(record)
		if err != nil {
			line, _ := p.reader.FieldPos(0)
			p.skip(line, err)
			continue
		}

		return row, nil
	}
}

// Skipped is the number of rows dropped so far.
func (p *Parser) Skipped() int {
	return p.skipped
}

func (p *Parser) parseRecord(record []string) (Row, error) {
	address := strings.TrimSpace(record[0])
	if address == "" {
		return Row{}, ErrEmptyAddress
	}

	if len(record) < 2 || strings.TrimSpace(record[1]) == "" {
		return Row{}, ErrEmptyAmount
	}

	amount, err := ScaleAmount(record[1], p.decimals)
	if err != nil {
		return Row{}, err
	}

	return Row{Address: address, Amount: amount}, nil
}

func (p *Parser) skip(line int, err error) {
	p.skipped++
	p.logger.Debug().Int("line", line).Err(err).Msg("skipping allocation row")
}
