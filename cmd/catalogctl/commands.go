package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"onefine/internal/model"
	"onefine/internal/storefront"

	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with the admin password and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.readPassword(password)
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			resp, err := client.Login(ctx, pw)
			if err != nil {
				return err
			}
			if err := a.saveToken(resp.Token); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Signed in until %s\n", resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "admin password (env "+envPassword+", else read from stdin)")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.clearToken(); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Signed out")
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var (
		demoFallback bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalogue, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			var opts []storefront.CacheOption
			if demoFallback {
				opts = append(opts, storefront.WithDemoFallback())
			}
			cache := storefront.NewCache(client, append(opts, storefront.WithCacheLogger(a.logger))...)

			ctx, cancel := a.context(cmd)
			defer cancel()

			result, err := cache.Load(ctx)
			if err != nil {
				return err
			}
			if result.Demo {
				fmt.Fprintf(a.stderr, "API unavailable (%v), showing demo products\n", result.Err)
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result.Products)
			}
			return printProducts(a, client, result.Products)
		},
	}
	cmd.Flags().BoolVar(&demoFallback, "demo-fallback", false, "show demo products when the API cannot be reached")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newAddCommand(a *app) *cobra.Command {
	var (
		input  model.ProductInput
		rating int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("rating") {
				input.Rating = &rating
			}
			return a.withSession(cmd, func(cache *storefront.Cache, token string) error {
				ctx, cancel := a.context(cmd)
				defer cancel()

				product, err := cache.AddProduct(ctx, token, input)
				if err != nil {
					return explain(err)
				}
				fmt.Fprintf(a.stdout, "Added %s (%s)\n", product.Name, product.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "product name")
	cmd.Flags().StringVar(&input.Price, "price", "", `display price, e.g. "Rs. 4,950"`)
	cmd.Flags().IntVar(&rating, "rating", model.DefaultRating, "rating 1-5")
	cmd.Flags().StringVar(&input.Image, "image", "", "image URL")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newUpdateCommand(a *app) *cobra.Command {
	var (
		name, price, image string
		rating             int
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a product; only the given flags are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.ProductPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("price") {
				patch.Price = &price
			}
			if flags.Changed("rating") {
				patch.Rating = &rating
			}
			if flags.Changed("image") {
				patch.Image = &image
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update: pass at least one of --name, --price, --rating, --image")
			}

			return a.withSession(cmd, func(cache *storefront.Cache, token string) error {
				ctx, cancel := a.context(cmd)
				defer cancel()

				product, err := cache.UpdateProduct(ctx, token, args[0], patch)
				if err != nil {
					return explain(err)
				}
				fmt.Fprintf(a.stdout, "Updated %s (%s)\n", product.Name, product.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "product name")
	cmd.Flags().StringVar(&price, "price", "", "display price")
	cmd.Flags().IntVar(&rating, "rating", 0, "rating 1-5")
	cmd.Flags().StringVar(&image, "image", "", "image URL")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(cache *storefront.Cache, token string) error {
				ctx, cancel := a.context(cmd)
				defer cancel()

				if err := cache.DeleteProduct(ctx, token, args[0]); err != nil {
					return explain(err)
				}
				fmt.Fprintf(a.stdout, "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newUploadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()

			return a.withSession(cmd, func(cache *storefront.Cache, token string) error {
				ctx, cancel := a.context(cmd)
				defer cancel()

				url, err := cache.UploadImage(ctx, token, filepath.Base(args[0]), f)
				if err != nil {
					return explain(err)
				}
				fmt.Fprintln(a.stdout, url)
				return nil
			})
		},
	}
}

// withSession loads the stored token and hands fn a cache over the API.
func (a *app) withSession(cmd *cobra.Command, fn func(cache *storefront.Cache, token string) error) error {
	token, err := a.loadToken()
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}
	return fn(storefront.NewCache(client, storefront.WithCacheLogger(a.logger)), token)
}

func printProducts(a *app, client *storefront.Client, products []model.Product) error {
	if len(products) == 0 {
		fmt.Fprintln(a.stdout, "No products")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tRATING\tIMAGE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Price, p.Rating, client.ResolveURL(p.Image))
	}
	return tw.Flush()
}
