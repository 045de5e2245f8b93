package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"inventory-service/internal/domain"
	"inventory-service/internal/inventory"
	"inventory-service/internal/view"
)

var (
	// List flags
	shopping bool
	query    string

	// Add flags
	addCategory string
	addImage    string
	addImageURL string

	// Toggle flags
	toggleCart bool
)

// listCmd prints the inventory or the shopping list
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show products grouped by category",
	Long: `Show products grouped by category.

Examples:
  inventoryctl list                    # Inventory page
  inventoryctl list --shopping -q lait # Shopping list filtered on "lait"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		board, c, err := loadedBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer c.CloseIdleConnections()

		page := domain.PageInventory
		if shopping {
			page = domain.PageShopping
		}
		renderView(cmd.OutOrStdout(), board.View(query, page))
		return nil
	},
}

// addCmd creates a product
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a product",
	Long: `Add a product. The category is given by id or name; the image is either a
local file to upload or the URL of an image already in the bucket.

Examples:
  inventoryctl add "Lait entier" --category Frais --image ./lait.png
  inventoryctl add Beurre --category 2 --image-url http://localhost:8080/storage/v1/object/public/product-images/lait.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addImage != "" && addImageURL != "" {
			return fmt.Errorf("--image and --image-url are mutually exclusive")
		}
		board, c, err := loadedBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer c.CloseIdleConnections()

		categoryID, err := resolveCategory(board.Categories(), addCategory)
		if err != nil {
			return err
		}

		in := inventory.AddProductInput{Title: args[0], CategoryID: categoryID, Image: domain.NoImage{}}
		switch {
		case addImage != "":
			f, err := os.Open(addImage)
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			in.Image = domain.UploadedImage{Filename: filepath.Base(addImage), Content: f, Size: info.Size()}
		case addImageURL != "":
			in.Image = domain.ExistingImage{URL: addImageURL}
		}

		p, err := board.Add(cmd.Context(), in)
		if err != nil {
			return err
		}
		if p != nil {
			success(cmd.OutOrStdout(), "Produit ajouté avec succès. (#%d %s)", p.ID, p.Title)
		} else {
			success(cmd.OutOrStdout(), "Produit ajouté avec succès.")
		}
		return nil
	},
}

// resolveCategory accepts a category id or a case-insensitive name.
func resolveCategory(categories []domain.Category, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, fmt.Errorf("--category is required")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, ref) {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", ref)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

// toggleCmd flips a product flag
var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip the to-buy flag (or the in-cart flag with --cart)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		board, c, err := loadedBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer c.CloseIdleConnections()

		kind := domain.ToggleToBuy
		if toggleCart {
			kind = domain.ToggleInCart
		}
		if err := board.Toggle(cmd.Context(), id, kind); err != nil {
			return err
		}
		for _, p := range board.Products() {
			if p.ID == id {
				success(cmd.OutOrStdout(), "%s: %s = %t", p.Title, kind, p.Flag(kind))
			}
		}
		return nil
	},
}

// clearCartCmd empties the cart
var clearCartCmd = &cobra.Command{
	Use:   "clear-cart",
	Short: "Reset both flags of every product in the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		board, c, err := loadedBoard(cmd.Context())
		if err != nil {
			return err
		}
		defer c.CloseIdleConnections()

		ids := board.CartIDs(query)
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Le panier est vide."))
			return nil
		}
		if err := board.ClearCart(cmd.Context(), ids); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Panier vidé (%d produits).", len(ids))
		return nil
	},
}

// deleteCmd removes a product
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		defer c.CloseIdleConnections()

		if err := c.DeleteProduct(cmd.Context(), id); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Produit supprimé avec succès.")
		return nil
	},
}

// imagesCmd lists the images available for reuse
var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List stored product images",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := signedIn(cmd.Context())
		if err != nil {
			return err
		}
		defer c.CloseIdleConnections()

		urls, err := c.ListImages(cmd.Context())
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Aucune image."))
			return nil
		}
		for _, u := range urls {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", primaryStyle.Render(view.ImageLabel(u)), mutedStyle.Render(u))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&shopping, "shopping", false, "Show the shopping list instead of the inventory")
	listCmd.Flags().StringVarP(&query, "query", "q", "", "Filter products by title")

	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "Category id or name (required)")
	addCmd.Flags().StringVar(&addImage, "image", "", "Image file to upload")
	addCmd.Flags().StringVar(&addImageURL, "image-url", "", "URL of an image already stored")

	toggleCmd.Flags().BoolVar(&toggleCart, "cart", false, "Flip the in-cart flag instead of to-buy")

	clearCartCmd.Flags().StringVarP(&query, "query", "q", "", "Only clear products matching the filter")

	rootCmd.AddCommand(listCmd, addCmd, toggleCmd, clearCartCmd, deleteCmd, imagesCmd)
}
