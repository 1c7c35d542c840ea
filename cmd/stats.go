package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rhymednick/inw-radio-log/internal/inventory"
	"github.com/rhymednick/inw-radio-log/internal/ledger"
	"github.com/rhymednick/inw-radio-log/internal/models"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show inventory statistics",
	Long:  `Display the number of users and radios, how many radios are out and the size of the checkout log.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		users, err := a.users.List(cmd.Context(), false)
		if err != nil {
			return fmt.Errorf("failed to get users: %w", err)
		}
		radios, err := a.inventory.List(cmd.Context(), inventory.Filter{})
		if err != nil {
			return fmt.Errorf("failed to get radios: %w", err)
		}
		entries, err := a.ledger.Query(cmd.Context(), ledger.Filter{})
		if err != nil {
			return fmt.Errorf("failed to get checkout log: %w", err)
		}
		archives, err := a.ledger.Archives(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get checkout log archives: %w", err)
		}

		out := lo.Filter(radios, func(r models.Radio, _ int) bool { return r.IsCheckedOut() })

		fmt.Println("Inventory Statistics:")
		fmt.Printf("Users: %s\n", humanize.Comma(int64(len(users))))
		fmt.Printf("Radios: %s\n", humanize.Comma(int64(len(radios))))
		fmt.Printf("Checked Out: %s\n", humanize.Comma(int64(len(out))))
		fmt.Printf("Partially Damaged: %d\n", lo.CountBy(radios, func(r models.Radio) bool { return r.PartiallyDamaged }))
		fmt.Printf("Nonfunctional: %d\n", lo.CountBy(radios, func(r models.Radio) bool { return r.Nonfunctional }))
		fmt.Printf("Checkout Log Entries: %s\n", humanize.Comma(int64(len(entries))))
		fmt.Printf("Checkout Log Archives: %d\n", len(archives))

		if len(out) > 0 {
			fmt.Println("\nRadios Out:")
			for _, r := range out {
				since := ""
				if r.CheckoutDate != nil {
					since = humanize.RelTime(*r.CheckoutDate, time.Now(), "ago", "from now")
				}
				fmt.Printf("  %s (%s): %s, %s\n", r.ID, r.Name, a.users.DisplayName(cmd.Context(), *r.CheckedOutUser), since)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
