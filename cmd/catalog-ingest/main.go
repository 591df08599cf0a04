// Command catalog-ingest merges gzipped supplier catalog feeds into the
// product table. Each feed is a stream of JSON lines; a record is imported
// only when its SKU appears in at least two feeds, which filters out entries
// a single supplier made up or misspelled.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/avetra/sales-api/internal/domain/product"
	"github.com/avetra/sales-api/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	numFeeds      = 3
	progressEvery = 1_000_000
)

// catalogNamespace scopes the deterministic product ids derived from SKUs.
var catalogNamespace = uuid.MustParse("c3f1a6de-52b8-4f0f-9b33-7d2e84a90c15")

// record is one catalog line as supplied by a feed.
type record struct {
	SKU         string
	Title       string
	Price       decimal.Decimal
	Description string
	Category    string
	Image       string
	Stock       int
}

// fileResult holds candidate records found in a single feed during pass 2.
type fileResult struct {
	records map[string]record
	seen    map[string]uint
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalogN.gz feed files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files := make([]string, numFeeds)
	for i := range numFeeds {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("catalog%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: build one bloom filter of SKUs per feed, concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("feeds", numFeeds))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: collect records whose SKU appears in 2+ feeds.
	slog.Info("pass 2: finding cross-verified records")

	verified, err := findVerifiedRecords(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find verified records")
	}

	slog.Info("verified records found", slog.Int("count", len(verified)))

	if len(verified) == 0 {
		slog.Info("nothing to import")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := writeProducts(ctx, postgres.NewProductRepository(pool), verified); err != nil {
		return errors.Wrap(err, "write products to database")
	}

	return nil
}

// buildBloomFilters creates one bloom filter per feed, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(line []byte) error {
			rec, err := decodeRecord(line)
			if err != nil {
				return err
			}
			if rec.SKU == "" {
				return nil
			}
			filter.AddString(rec.SKU)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.Int("feed", idx+1),
					slog.Uint64("records", count),
				)
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "build filter for feed %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_records", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findVerifiedRecords re-streams each feed and checks SKUs against OTHER
// feeds' bloom filters. A record is verified if its SKU appears in 2 or more
// feeds.
func findVerifiedRecords(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]record, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge per-feed bitmasks; earlier feeds win on record content.
	merged := make(map[string]uint)
	records := make(map[string]record)
	for _, r := range results {
		for sku, mask := range r.seen {
			merged[sku] |= mask
			if _, ok := records[sku]; !ok {
				records[sku] = r.records[sku]
			}
		}
	}

	var verified []record
	for sku, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			verified = append(verified, records[sku])
		}
	}

	return verified, nil
}

func findCandidatesInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		res := fileResult{
			records: make(map[string]record),
			seen:    make(map[string]uint),
		}
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(line []byte) error {
			rec, err := decodeRecord(line)
			if err != nil {
				return err
			}
			if rec.SKU == "" {
				return nil
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("feed", idx+1),
					slog.Uint64("records", count),
				)
			}

			// Keep the record only if some OTHER feed also carries the SKU.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(rec.SKU) {
					res.records[rec.SKU] = rec
					res.seen[rec.SKU] |= fileBit
					break
				}
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "scan feed %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_records", count),
			slog.Int("candidates", len(res.seen)),
		)

		results[idx] = res
		return nil
	}
}

// decodeRecord parses one JSON line of a feed.
func decodeRecord(line []byte) (record, error) {
	var rec record
	d := jx.DecodeBytes(line)

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "sku":
			v, err := d.Str()
			rec.SKU = v
			return err
		case "title":
			v, err := d.Str()
			rec.Title = v
			return err
		case "price":
			v, err := d.Str()
			if err != nil {
				return err
			}
			rec.Price, err = decimal.NewFromString(v)
			return err
		case "description":
			v, err := d.Str()
			rec.Description = v
			return err
		case "category":
			v, err := d.Str()
			rec.Category = v
			return err
		case "image":
			v, err := d.Str()
			rec.Image = v
			return err
		case "stock":
			v, err := d.Int()
			rec.Stock = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return record{}, errors.Wrap(err, "decode record")
	}

	return rec, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeProducts upserts all verified records into the product table.
func writeProducts(ctx context.Context, repo *postgres.ProductRepository, verified []record) error {
	slog.Info("writing products to database", slog.Int("count", len(verified)))

	for i, rec := range verified {
		p := product.New(rec.Title, rec.Price, rec.Description, rec.Category, rec.Image, rec.Stock)
		p.ID = uuid.NewSHA1(catalogNamespace, []byte(rec.SKU))

		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", rec.SKU)
		}

		if (i+1)%100 == 0 || i+1 == len(verified) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(verified)))
		}
	}

	return nil
}
