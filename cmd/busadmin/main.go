// busadmin manages the route catalog from the command line. It talks to the
// same catalog store as the server (file or Postgres, chosen by
// CATALOG_BACKEND or --backend) and takes the Redis catalog lock when Redis
// is enabled.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"busbooking/internal/app"
	"busbooking/internal/config"
	"busbooking/internal/domain"
	internalRedis "busbooking/internal/redis"
	"busbooking/internal/repository/file"
	"busbooking/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}
	command, args := args[0], args[1:]

	cfg := config.Load()

	var (
		busID, origin, destination, departure, imageRef, legID, seedFrom string
		price                                                            int64
		seats                                                            int
		stops                                                            []string
	)

	flagSet := pflag.NewFlagSet("busadmin "+command, pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Catalog.Backend, "backend", cfg.Catalog.Backend, "catalog backend: file or postgres")
	flagSet.StringVar(&cfg.Catalog.File, "file", cfg.Catalog.File, "catalog YAML file for the file backend")

	switch command {
	case "list":
	case "add":
		flagSet.StringVar(&busID, "bus", "", "bus id")
		flagSet.StringVar(&origin, "origin", "", "boarding point")
		flagSet.StringVar(&destination, "destination", "", "destination")
		flagSet.StringVar(&departure, "time", "", `departure time, e.g. "07:00 AM" or "19:00"`)
		flagSet.Int64Var(&price, "price", 0, "price per seat")
		flagSet.IntVar(&seats, "seats", 40, "total seats")
		flagSet.StringSliceVar(&stops, "stops", nil, "intermediate stops, comma separated")
		flagSet.StringVar(&imageRef, "image", "", "image reference")
	case "delete":
		flagSet.StringVar(&legID, "id", "", "leg id to delete")
	case "seed":
		flagSet.StringVar(&seedFrom, "from", "configs/catalog.yaml", "YAML catalog to copy into the backend")
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var db *sql.DB
	if cfg.Catalog.Backend == config.CatalogBackendPostgres {
		var err error
		db, err = app.NewDatabase(ctx, cfg.Database, nil)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	store, err := app.NewCatalogStore(cfg.Catalog, db)
	if err != nil {
		return err
	}

	if command == "seed" {
		legs, err := file.NewCatalogStore(seedFrom).LoadLegs(ctx)
		if err != nil {
			return err
		}
		if err := store.SaveLegs(ctx, legs); err != nil {
			return err
		}
		fmt.Printf("seeded %d legs from %s\n", len(legs), seedFrom)
		return nil
	}

	var lockStore internalRedis.LockStoreInterface
	if cfg.Redis.Enabled {
		var client *redis.Client
		client, err = app.NewRedisClient(ctx, cfg.Redis, nil)
		if err != nil {
			return err
		}
		defer client.Close()
		lockStore = internalRedis.NewLockStore(client)
	}

	catalog := service.NewCatalogService(store, service.NewInventoryRegistry(0), nil, lockStore, nil, cfg.Booking.CatalogLockTTL)
	if err := catalog.Refresh(ctx); err != nil {
		return err
	}

	switch command {
	case "list":
		return printLegs(catalog.Legs())
	case "add":
		departureTime, err := domain.ParseTimeOfDay(departure)
		if err != nil {
			return err
		}
		leg, err := catalog.AddLeg(ctx, domain.RouteLeg{
			BusID:             busID,
			Origin:            origin,
			Destination:       destination,
			DepartureTime:     departureTime,
			PricePerSeat:      price,
			TotalSeats:        seats,
			IntermediateStops: stops,
			ImageRef:          imageRef,
		})
		if err != nil {
			return err
		}
		fmt.Printf("added leg %s\n", leg.ID)
	case "delete":
		if legID == "" {
			return fmt.Errorf("--id is required")
		}
		if err := catalog.DeleteLeg(ctx, legID); err != nil {
			return err
		}
		fmt.Printf("deleted leg %s\n", legID)
	}
	return nil
}

func printLegs(legs []domain.RouteLeg) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBUS\tFROM\tTO\tDEPARTS\tPRICE\tSEATS\tSTOPS")
	for _, leg := range legs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d/%d\t%s\n",
			leg.ID, leg.BusID, leg.Origin, leg.Destination, leg.DepartureTime,
			leg.PricePerSeat, leg.AvailableSeats, leg.TotalSeats, strings.Join(leg.IntermediateStops, ", "))
	}
	return w.Flush()
}

func printUsage() {
	fmt.Fprint(os.Stderr, `busadmin manages the bus route catalog.

Usage:
  busadmin list   [--backend file|postgres] [--file path]
  busadmin add    --bus 13 --origin X --destination Y --time "07:00 AM" --price 10 [--seats 40] [--stops a,b]
  busadmin delete --id LEG_ID
  busadmin seed   [--from configs/catalog.yaml] --backend postgres

Database and Redis settings come from the same environment variables as the server.
`)
}
