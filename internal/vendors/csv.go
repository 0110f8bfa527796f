package vendors

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/inventory"
	"github.com/agentstation/stocksync/pkg/logging"
)

// CSVFetcher reads a local CSV file with the header sku,name,stockQuantity.
// The first record is always treated as the header. Parsing stops at the
// first bad record and the rows before it are kept.
type CSVFetcher struct {
	vendor   string
	path     string
	encoding string
	logger   *zerolog.Logger
}

// CSVOption configures a CSVFetcher.
type CSVOption func(*CSVFetcher)

// WithEncoding sets the file encoding (utf-8, windows-1251, iso-8859-1).
func WithEncoding(enc string) CSVOption {
	return func(f *CSVFetcher) {
		f.encoding = enc
	}
}

// WithCSVLogger sets the logger.
func WithCSVLogger(l *zerolog.Logger) CSVOption {
	return func(f *CSVFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewCSVFetcher creates a fetcher for the file at path.
func NewCSVFetcher(vendor, path string, opts ...CSVOption) *CSVFetcher {
	f := &CSVFetcher{vendor: vendor, path: path}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logging.Default()
	}
	return f
}

// Vendor implements Fetcher.
func (f *CSVFetcher) Vendor() string { return f.vendor }

// Kind implements Fetcher.
func (f *CSVFetcher) Kind() Kind { return KindCSV }

// Path returns the configured file path.
func (f *CSVFetcher) Path() string { return f.path }

// Fetch implements Fetcher.
func (f *CSVFetcher) Fetch(ctx context.Context) []inventory.VendorProduct {
	logger := f.logger.With().Str("vendor", f.vendor).Str("path", f.path).Logger()

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Msg("CSV not found, returning empty")
		} else {
			logger.Error().Err(errors.WrapIO("open", f.path, err)).Msg("CSV read error")
		}
		return []inventory.VendorProduct{}
	}
	defer func() { _ = file.Close() }()

	products, err := f.parse(ctx, file)
	if err != nil {
		logger.Error().Err(err).Int("parsed", len(products)).Msg("CSV read error, keeping rows parsed so far")
	}
	logger.Debug().Int("items", len(products)).Msg("Read vendor CSV")
	return products
}

func (f *CSVFetcher) parse(ctx context.Context, r io.Reader) ([]inventory.VendorProduct, error) {
	products := []inventory.VendorProduct{}

	if dec := decoderFor(f.encoding); dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return products, nil
	}
	if err != nil {
		return products, f.parseErr(1, err)
	}
	if !isHeader(header) {
		f.logger.Debug().Str("vendor", f.vendor).Strs("header", header).Msg("Unexpected CSV header, skipping it anyway")
	}

	for {
		if err := ctx.Err(); err != nil {
			return products, err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			return products, nil
		}
		if err != nil {
			line := 0
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				line = csvErr.Line
			}
			return products, f.parseErr(line, err)
		}
		line, _ := cr.FieldPos(0)
		vp, err := f.record(rec)
		if err != nil {
			return products, f.parseErr(line, err)
		}
		products = append(products, vp)
	}
}

func (f *CSVFetcher) record(rec []string) (inventory.VendorProduct, error) {
	if len(rec) < len(constants.CSVHeader) {
		return inventory.VendorProduct{}, errors.NewValidationError("record", strings.Join(rec, ","), "expected sku,name,stockQuantity")
	}
	qty, err := strconv.Atoi(strings.TrimSpace(rec[2]))
	if err != nil {
		return inventory.VendorProduct{}, err
	}
	return inventory.VendorProduct{
		SKU:           strings.TrimSpace(rec[0]),
		Name:          strings.TrimSpace(rec[1]),
		StockQuantity: &qty,
		Vendor:        f.vendor,
	}, nil
}

func (f *CSVFetcher) parseErr(line int, err error) error {
	return errors.NewParseError("csv", f.path, line, err)
}

func isHeader(rec []string) bool {
	if len(rec) < len(constants.CSVHeader) {
		return false
	}
	for i, want := range constants.CSVHeader {
		if strings.TrimSpace(strings.TrimPrefix(rec[i], "\ufeff")) != want {
			return false
		}
	}
	return true
}

// decoderFor returns nil for UTF-8, which needs no transform.
func decoderFor(name string) encoding.Encoding {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "windows-1251", "cp1251":
		return charmap.Windows1251
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1
	default:
		return nil
	}
}
