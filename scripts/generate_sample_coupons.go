package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"storefront/internal/model"
)

// generateSampleCoupons writes a gzipped JSON-lines coupon catalogue for
// `admin import-coupons`. One definition is deliberately invalid so the
// import reports a skipped line.
func main() {
	dataDir := "data/coupons"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 3, 0)
	f := func(v float64) *float64 { return &v }

	coupons := []model.CouponRequest{
		{
			Code:              "WELCOME10",
			DiscountType:      model.DiscountPercentage,
			DiscountAmount:    10,
			MaxDiscountAmount: f(50),
			StartDate:         start,
			EndDate:           end,
			UsageLimit:        1000,
		},
		{
			Code:              "SAVE25",
			DiscountType:      model.DiscountFixed,
			DiscountAmount:    25,
			MinPurchaseAmount: f(150),
			StartDate:         start,
			EndDate:           end,
			UsageLimit:        200,
		},
		{
			Code:              "FLASH40",
			DiscountType:      model.DiscountPercentage,
			DiscountAmount:    40,
			MinPurchaseAmount: f(100),
			MaxDiscountAmount: f(80),
			StartDate:         start,
			EndDate:           start.AddDate(0, 0, 2),
			UsageLimit:        50,
		},
		{
			Code:           "BROKEN",
			DiscountType:   model.DiscountFixed,
			DiscountAmount: 5,
			StartDate:      end,
			EndDate:        start,
			UsageLimit:     1,
		},
	}

	filePath := filepath.Join(dataDir, "catalogue.jsonl.gz")
	if err := writeCatalogue(filePath, coupons); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d coupon definitions\n", filePath, len(coupons))
	fmt.Println("\nImport with:")
	fmt.Printf("  go run ./cmd/admin import-coupons %s\n", filePath)
	fmt.Println("\nBROKEN ends before it starts and is skipped by the importer.")
}

func writeCatalogue(filePath string, coupons []model.CouponRequest) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	enc := json.NewEncoder(gzipWriter)

	for i := range coupons {
		if err := enc.Encode(&coupons[i]); err != nil {
			return fmt.Errorf("failed to write coupon %s: %w", coupons[i].Code, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush catalogue: %w", err)
	}
	return file.Close()
}
