// Command seed-db loads demo data into the database: the product catalog from
// a JSON file plus a set of demo users and carts. Runs are idempotent, ids are
// derived from stable keys so re-seeding overwrites instead of duplicating.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avetra/sales-api/internal/domain/cart"
	"github.com/avetra/sales-api/internal/domain/product"
	"github.com/avetra/sales-api/internal/domain/user"
	"github.com/avetra/sales-api/internal/query"
	"github.com/avetra/sales-api/internal/storage/postgres"
)

// seedNamespace scopes the deterministic UUIDs produced by this tool.
var seedNamespace = uuid.MustParse("8e5b9a52-37d4-4a7e-9c61-0f6a3c2d1b90")

type productJSON struct {
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
}

type userSeed struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	City      string
	Role      user.Role
}

var demoUsers = []userSeed{
	{Email: "admin@example.com", Username: "admin", Password: "admin123", FirstName: "Alex", LastName: "Stone", City: "Springfield", Role: user.RoleAdmin},
	{Email: "mira@example.com", Username: "mira", Password: "mira123", FirstName: "Mira", LastName: "Voss", City: "Riverton", Role: user.RoleCustomer},
	{Email: "jonas@example.com", Username: "jonas", Password: "jonas123", FirstName: "Jonas", LastName: "Falk", City: "Lakewood", Role: user.RoleCustomer},
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
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

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products := postgres.NewProductRepository(pool)
	if err := seedProducts(ctx, products, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	users := postgres.NewUserRepository(pool)
	carts := postgres.NewCartRepository(pool)
	if err := seedUsersAndCarts(ctx, users, carts, products); err != nil {
		return errors.Wrap(err, "seed users and carts")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var entries []productJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(entries)))

	for _, e := range entries {
		p := product.New(e.Title, e.Price, e.Description, e.Category, e.Image, e.Stock)
		p.ID = seedID("product", e.Title)

		if err := repo.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", e.Title)
		}

		slog.Info("upserted product", slog.String("id", p.ID.String()), slog.String("title", p.Title))
	}

	return nil
}

func seedUsersAndCarts(ctx context.Context, users *postgres.UserRepository, carts *postgres.CartRepository, products *postgres.ProductRepository) error {
	slog.Info("seeding demo users", slog.Int("count", len(demoUsers)))

	// Put the first two seeded products in every demo customer's cart.
	page, err := products.GetPage(ctx, nil, query.PageRequest{Page: 1, Size: 2})
	if err != nil {
		return errors.Wrap(err, "list seeded products")
	}

	for _, seed := range demoUsers {
		u := user.New(seed.Email, seed.Username, user.HashPassword(seed.Password), user.Name{
			FirstName: seed.FirstName,
			LastName:  seed.LastName,
		})
		u.ID = seedID("user", seed.Username)
		u.Role = seed.Role
		u.Address = &user.Address{City: seed.City}

		if err := users.Upsert(ctx, u); err != nil {
			return errors.Wrapf(err, "upsert user %s", seed.Username)
		}

		slog.Info("upserted user", slog.String("username", u.Username), slog.String("role", string(u.Role)))

		if seed.Role != user.RoleCustomer {
			continue
		}

		c := cart.New(u.ID, time.Now().UTC())
		c.ID = seedID("cart", seed.Username)
		for i, p := range page.Items {
			if err := c.AddProduct(p.ID, i+1); err != nil {
				return errors.Wrapf(err, "fill cart for %s", seed.Username)
			}
		}

		if err := carts.Upsert(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert cart for %s", seed.Username)
		}
	}

	return nil
}

// seedID derives a stable UUID from a seed key so repeated runs hit the same
// rows.
func seedID(kind, key string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(kind+"/"+key))
}
