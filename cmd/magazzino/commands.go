package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lucafab/magazzino/catalog"
	"github.com/lucafab/magazzino/export"
	"github.com/lucafab/magazzino/internal/config"
	"github.com/lucafab/magazzino/invoices"
	"github.com/lucafab/magazzino/reconcile"
	"github.com/lucafab/magazzino/scanner"
	"github.com/lucafab/magazzino/session"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func loginCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "authenticate against the catalog gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
		},
		Action: func(c *cli.Context) error {
			store, err := restoredStore(cfg)
			if err != nil {
				return err
			}
			result, err := gatewayClient(cfg).Login(c.Context, c.String("username"), c.String("password"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("credenziali non valide o server non raggiungibile: %v", err), 1)
			}
			if err := store.Login(result.Token, result.Username, session.RoleType(result.Role)); err != nil {
				return err
			}
			if result.Role == string(session.RoleAdmin) {
				fmt.Printf("Benvenuta %s!\n", result.Username)
			} else {
				fmt.Printf("Benvenuto %s (accesso ospite)\n", result.Username)
			}
			return nil
		},
	}
}

func logoutCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "clear the persisted session",
		Action: func(c *cli.Context) error {
			store, err := restoredStore(cfg)
			if err != nil {
				return err
			}
			store.Logout()
			fmt.Println("sessione terminata")
			return nil
		},
	}
}

func whoamiCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the current session",
		Action: func(c *cli.Context) error {
			_, sess, err := requireSession(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s), sessione valida fino a %s\n", sess.Username, sess.Role, sess.Expiry.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func productsCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "browse and maintain the product catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list catalog products",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "filter by barcode or description"},
				},
				Action: func(c *cli.Context) error {
					_, sess, err := requireSession(cfg)
					if err != nil {
						return err
					}
					products, err := gatewayClient(cfg).ListProducts(c.Context, sess)
					if err != nil {
						return err
					}
					printProducts(filterProducts(products, c.String("search")))
					return nil
				},
			},
			{
				Name:      "get",
				Usage:     "look a product up by barcode",
				ArgsUsage: "<barcode>",
				Action: func(c *cli.Context) error {
					_, sess, err := requireSession(cfg)
					if err != nil {
						return err
					}
					product, err := gatewayClient(cfg).GetProduct(c.Context, sess, c.Args().First())
					if err != nil {
						return err
					}
					printProducts([]catalog.Product{*product})
					return nil
				},
			},
			{
				Name:      "rm",
				Usage:     "delete a product by barcode",
				ArgsUsage: "<barcode>",
				Action: func(c *cli.Context) error {
					_, sess, err := requireSession(cfg)
					if err != nil {
						return err
					}
					if err := gatewayClient(cfg).DeleteProduct(c.Context, sess, c.Args().First()); err != nil {
						return err
					}
					fmt.Println("prodotto eliminato")
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "export the catalog to a spreadsheet",
				Flags: []cli.Flag{
					&cli.Int64SliceFlag{Name: "selected", Usage: "export only these product IDs"},
				},
				Action: func(c *cli.Context) error {
					_, sess, err := requireSession(cfg)
					if err != nil {
						return err
					}
					products, err := gatewayClient(cfg).ListProducts(c.Context, sess)
					if err != nil {
						return err
					}
					writer := export.NewWriter(cfg.GetDataFolder())
					var path string
					if ids := c.Int64Slice("selected"); len(ids) > 0 {
						path, err = writer.SelectedProducts(products, ids)
					} else {
						path, err = writer.AllProducts(products)
					}
					if err != nil {
						return err
					}
					fmt.Printf("esportato: %s\n", path)
					return nil
				},
			},
		},
	}
}

func scanCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "scan barcodes from camera frames and reconcile them against the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "frames", Usage: "folder of captured frame images acting as the camera", Required: true},
			&cli.BoolFlag{Name: "save", Usage: "save reconciled drafts back to the catalog as-is"},
			&cli.BoolFlag{Name: "export", Usage: "write the scan-session list to a spreadsheet on exit"},
		},
		Action: func(c *cli.Context) error {
			_, sess, err := requireSession(cfg)
			if err != nil {
				return err
			}

			list := scanner.NewList()
			reconciler, err := reconcile.NewReconciler(gatewayClient(cfg), reconcile.WithMirror(list))
			if err != nil {
				return err
			}

			bridge, err := scanner.NewBridge(
				scanner.NewDirectoryProvider(c.String("frames")),
				scanner.NewZXingDecoder(),
				scanner.WithFPS(cfg.GetScannerFPS()),
			)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			events, err := bridge.Start(ctx, cfg.GetScannerRegion())
			if err != nil {
				// No camera or missing region: reported, nothing starts.
				log.Warn().Err(err).Msg("scanner did not start")
				return cli.Exit("scanner non avviato", 1)
			}
			// Releasing the camera on the way out is mandatory.
			defer bridge.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			fmt.Println("scansione avviata, Ctrl-C per terminare")
			seen := map[string]bool{}
		loop:
			for {
				select {
				case <-stop:
					break loop
				case code, ok := <-events:
					if !ok {
						break loop
					}
					if seen[code] {
						continue
					}
					seen[code] = true
					if err := handleScan(c.Context, reconciler, sess, code, c.Bool("save")); err != nil {
						log.Error().Err(err).Str("barcode", code).Msg("reconciliation failed")
					}
				}
			}

			if c.Bool("export") && list.Len() > 0 {
				path, err := export.NewWriter(cfg.GetDataFolder()).ScannedProducts(list.Products())
				if err != nil {
					return err
				}
				fmt.Printf("esportato: %s\n", path)
			}
			return nil
		},
	}
}

func handleScan(ctx context.Context, reconciler *reconcile.Reconciler, sess *session.Session, barcode string, save bool) error {
	draft, err := reconciler.Open(ctx, sess, barcode)
	if err != nil {
		return err
	}
	if draft.Existing() {
		fmt.Printf("%s  trovato: %s\n", barcode, draft.Name)
	} else {
		fmt.Printf("%s  nuovo prodotto\n", barcode)
	}
	if !save {
		return nil
	}
	return draft.Save(ctx, sess)
}

func invoiceCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "invoice",
		Usage: "invoice import workflow",
		Subcommands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "upload an invoice PDF and commit or discard the extracted lines",
				ArgsUsage: "<file.pdf>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "commit", Usage: "barcodes to commit"},
					&cli.StringSliceFlag{Name: "discard", Usage: "barcodes to discard"},
				},
				Action: func(c *cli.Context) error {
					_, sess, err := requireSession(cfg)
					if err != nil {
						return err
					}

					path := c.Args().First()
					if path == "" {
						return cli.Exit("serve il file della fattura", 1)
					}
					file, err := os.Open(path)
					if err != nil {
						return err
					}
					defer file.Close()

					reconciler, err := reconcile.NewReconciler(gatewayClient(cfg))
					if err != nil {
						return err
					}
					importer, err := invoices.NewImporter(gatewayClient(cfg), reconciler,
						invoices.WithNotify(func(msg string) { fmt.Println("avviso:", msg) }),
					)
					if err != nil {
						return err
					}

					if err := importer.Upload(c.Context, sess, path, file); err != nil {
						return cli.Exit(importer.Message(), 1)
					}
					fmt.Println(importer.Message())
					printMetadata(importer.Metadata())

					for _, barcode := range c.StringSlice("discard") {
						if err := importer.Discard(barcode); err != nil {
							log.Warn().Err(err).Str("barcode", barcode).Msg("discard failed")
						}
					}
					for _, barcode := range c.StringSlice("commit") {
						if err := importer.Commit(c.Context, sess, barcode); err != nil {
							log.Error().Err(err).Str("barcode", barcode).Msg("commit failed")
						}
					}

					fmt.Printf("righe in sospeso: %d, inserite: %s\n",
						len(importer.Pending()), strings.Join(importer.Inserted(), ", "))
					return nil
				},
			},
		},
	}
}

func filterProducts(products []catalog.Product, search string) []catalog.Product {
	if search == "" {
		return products
	}
	search = strings.ToLower(search)
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Barcode), search) ||
			strings.Contains(strings.ToLower(p.Description), search) {
			out = append(out, p)
		}
	}
	return out
}

func printProducts(products []catalog.Product) {
	if len(products) == 0 {
		fmt.Println("nessun prodotto")
		return
	}
	fmt.Printf("%-16s %-30s %8s %10s %10s\n", "BARCODE", "DESCRIZIONE", "QTA", "VENDITA", "ACQUISTO")
	for _, p := range products {
		fmt.Printf("%-16s %-30s %8.2f %9.2f€ %9.2f€\n",
			p.Barcode, truncate(p.Description, 30), p.Quantity, p.SalePrice, p.PurchasePrice)
	}
}

func printMetadata(meta *catalog.InvoiceMetadata) {
	if meta == nil {
		return
	}
	fmt.Printf("fattura %s del %s, fornitore %s, importo %.2f€\n",
		meta.DocumentNumber, meta.DocumentDate, meta.Supplier, meta.Amount)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
