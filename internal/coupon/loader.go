package coupon

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// maxLineSize bounds a single catalogue line.
const maxLineSize = 1024 * 1024

// fileLoader implements Loader for catalogues on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based coupon catalogue loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "coupon-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, path string) ([]model.CouponRequest, error) {
	l.logger.Info().Str("file", path).Msg("loading coupon catalogue")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open coupon catalogue")
		return nil, fmt.Errorf("failed to open coupon catalogue %s: %w", path, err)
	}
	defer file.Close()

	coupons, err := readCatalogue(ctx, file, path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read coupon catalogue")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("coupons_loaded", len(coupons)).
		Msg("coupon catalogue loaded")

	return coupons, nil
}

// readCatalogue decodes a gzipped JSON-lines stream. Blank lines are ignored.
func readCatalogue(ctx context.Context, r io.Reader, source string) ([]model.CouponRequest, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var coupons []model.CouponRequest
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var req model.CouponRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", source, line, err)
		}
		coupons = append(coupons, req)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading coupon catalogue %s: %w", source, err)
	}

	return coupons, nil
}
