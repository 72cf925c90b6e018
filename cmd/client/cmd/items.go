package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dishcraft/menusync/models"
	"github.com/spf13/cobra"
)

var (
	itemName        string
	itemDescription string
	itemPrice       float64
	itemImagePath   string
	itemQuantity    int
	itemAvailable   bool

	listAll    bool
	jsonOutput bool
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a new menu item",
	Long: `Creates a menu item in the local store and schedules it for upload.

The command returns as soon as the item is durably stored locally; the upload
to the central menu store happens in the background.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := models.ItemFields{Name: args[0]}
		if err := collectItemFlags(cmd, &fields); err != nil {
			return err
		}

		item, err := app.Services.CatalogService.CreateOrUpdate(cmdContext(cmd), fields)
		if err != nil {
			return fmt.Errorf("create item: %w", err)
		}

		fmt.Printf("created %q (id %s, state %s)\n", item.Name, item.ID, item.State())
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an existing menu item",
	Long: `Applies a partial update to an item: only the fields given as flags
change, everything else keeps its current value. The item returns to the
pending state and is re-uploaded on the next sync pass, even if earlier
uploads had marked it as sync_problematic.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := models.ItemFields{ID: args[0]}
		if cmd.Flags().Changed("name") {
			fields.Name = itemName
		}
		if err := collectItemFlags(cmd, &fields); err != nil {
			return err
		}

		item, err := app.Services.CatalogService.CreateOrUpdate(cmdContext(cmd), fields)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		fmt.Printf("updated %q (id %s, state %s)\n", item.Name, item.ID, item.State())
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a menu item",
	Long: `Removes an item from the menu. An item the central store has never
seen is deleted outright; anything else disappears from listings immediately
and is deleted remotely on the next sync pass.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := app.Services.CatalogService.Remove(cmdContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("remove item: %w", err)
		}

		if removed {
			fmt.Printf("removed %s\n", args[0])
		} else {
			fmt.Printf("%s scheduled for deletion, it will vanish from the central store on the next sync\n", args[0])
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single menu item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := app.Services.CatalogService.Get(cmdContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}

		return printJSON(item)
	},
}

var stateCmd = &cobra.Command{
	Use:   "state <id>",
	Short: "Show the synchronization state of an item",
	Long: `Prints one of pending, synced, pending_deletion or sync_problematic.

sync_problematic means automatic retries were exhausted; edit the item or run
a manual sync to try again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := app.Services.CatalogService.SyncState(cmdContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("get sync state: %w", err)
		}

		fmt.Println(state)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List menu items",
	Long: `Lists the visible menu. With --all, items awaiting remote deletion
are included as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)

		var (
			items []models.Item
			err   error
		)
		if listAll {
			items, err = app.Services.CatalogService.ListAll(ctx)
		} else {
			items, err = app.Services.CatalogService.List(ctx)
		}
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}

		if jsonOutput {
			return printJSON(items)
		}
		printItemsTable(items)
		return nil
	},
}

// collectItemFlags copies the flags the user actually set into fields, so
// unset flags stay nil and keep the stored value.
func collectItemFlags(cmd *cobra.Command, fields *models.ItemFields) error {
	if cmd.Flags().Changed("desc") {
		fields.Description = &itemDescription
	}
	if cmd.Flags().Changed("price") {
		fields.Price = &itemPrice
	}
	if cmd.Flags().Changed("quantity") {
		fields.AvailableQuantity = &itemQuantity
	}
	if cmd.Flags().Changed("available") {
		fields.IsAvailable = &itemAvailable
	}
	if cmd.Flags().Changed("image") {
		image, err := readImageFile(itemImagePath)
		if err != nil {
			return err
		}
		fields.Image = &image
	}
	return nil
}

// readImageFile loads the picture from disk and encodes it the way the wire
// format carries it.
func readImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image file: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func printItemsTable(items []models.Item) {
	if len(items) == 0 {
		fmt.Println("no items found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY\tAVAILABLE\tIMAGE\tSTATE")

	for _, item := range items {
		image := "-"
		switch {
		case item.ImageDropped:
			image = "dropped"
		case item.Image != "":
			image = "yes"
		}

		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%t\t%s\t%s\n",
			item.ID,
			item.Name,
			item.Price,
			item.AvailableQuantity,
			item.IsAvailable,
			image,
			item.State(),
		)
	}

	w.Flush()
	fmt.Printf("\ntotal: %d\n", len(items))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdContext(cmd *cobra.Command) context.Context {
	return log.WithContext(cmd.Context())
}

func registerItemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&itemDescription, "desc", "", "item description")
	cmd.Flags().Float64Var(&itemPrice, "price", 0, "item price")
	cmd.Flags().StringVar(&itemImagePath, "image", "", "path to the item picture")
	cmd.Flags().IntVar(&itemQuantity, "quantity", 0, "available quantity")
	cmd.Flags().BoolVar(&itemAvailable, "available", true, "whether the item is sellable")
}

func init() {
	registerItemFlags(addCmd)

	registerItemFlags(updateCmd)
	updateCmd.Flags().StringVar(&itemName, "name", "", "item name")

	listCmd.Flags().BoolVar(&listAll, "all", false, "include items awaiting remote deletion")
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the raw items as JSON")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(listCmd)
}
