package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"asset-tracker/pkg/assetapi"
	"asset-tracker/pkg/assetstate"
	"asset-tracker/pkg/models"
	"asset-tracker/pkg/toast"
)

func defineList(fs *pflag.FlagSet) runFunc {
	search := fs.StringP("search", "s", "", "match name or serial number")
	category := fs.String("category", "", "exact category")
	status := fs.String("status", "", "one of "+strings.Join(models.StatusStrings(), ", "))
	page := fs.Int("page", models.DefaultPage, "page number")
	pageSize := fs.Int("page-size", models.DefaultPageSize, "assets per page")

	return func(ctx context.Context, a *app, _ []string) error {
		f := models.AssetFilters{Search: *search, Category: *category, Page: *page, PageSize: *pageSize}
		if *status != "" {
			st, err := models.ParseStatus(*status)
			if err != nil {
				return err
			}
			f.Status = st
		}

		list := assetstate.NewList(a.api, f)
		st := list.Load(ctx)
		if st.Err != "" {
			a.toasts.ShowError(list.LastError())
			return errReported
		}
		a.printList(st.Data)
		return nil
	}
}

func defineShow(_ *pflag.FlagSet) runFunc {
	return func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args)
		if err != nil {
			return err
		}
		detail := assetstate.NewDetail(a.api)
		st := detail.Load(ctx, id)
		if st.Err != "" {
			if assetapi.IsNotFound(detail.LastError()) {
				fmt.Fprintf(a.errOut, "Asset %d not found.\n", id)
			} else {
				a.toasts.ShowError(detail.LastError())
			}
			return errReported
		}
		a.printAsset(st.Data)
		return nil
	}
}

func defineCreate(fs *pflag.FlagSet) runFunc {
	defineInputFlags(fs)
	return func(ctx context.Context, a *app, _ []string) error {
		in, _, err := applyInputFlags(fs, models.AssetInput{Status: models.StatusActive})
		if err != nil {
			return err
		}
		m := assetstate.NewCreate(a.api)
		created := m.Run(ctx, in)
		if created == nil {
			a.reportMutation(m.ValidationErrors(), m.LastError())
			return errReported
		}
		a.toasts.ShowSuccess("Asset created successfully")
		a.printAsset(created)
		return nil
	}
}

func defineUpdate(fs *pflag.FlagSet) runFunc {
	defineInputFlags(fs)
	return func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args)
		if err != nil {
			return err
		}
		detail := assetstate.NewDetail(a.api)
		current := detail.Load(ctx, id)
		if current.Err != "" {
			a.toasts.ShowError(detail.LastError())
			return errReported
		}

		in, changed, err := applyInputFlags(fs, current.Data.Input())
		if err != nil {
			return err
		}
		if !changed {
			a.toasts.ShowInfo("Nothing to update")
			return nil
		}

		m := assetstate.NewUpdate(a.api)
		updated := m.Run(ctx, id, in)
		if updated == nil {
			a.reportMutation(m.ValidationErrors(), m.LastError())
			return errReported
		}
		a.toasts.ShowSuccess("Asset updated successfully")
		a.printAsset(updated)
		return nil
	}
}

func defineDelete(_ *pflag.FlagSet) runFunc {
	return func(ctx context.Context, a *app, args []string) error {
		id, err := idArg(args)
		if err != nil {
			return err
		}
		m := assetstate.NewDelete(a.api)
		if !m.Run(ctx, id) {
			a.toasts.ShowError(m.LastError())
			return errReported
		}
		a.toasts.ShowSuccess("Asset deleted successfully")
		return nil
	}
}

func defineCategories(_ *pflag.FlagSet) runFunc {
	return func(ctx context.Context, a *app, _ []string) error {
		return a.printLookup(assetstate.NewCategories(a.api).Load(ctx))
	}
}

func defineStatuses(_ *pflag.FlagSet) runFunc {
	return func(ctx context.Context, a *app, _ []string) error {
		return a.printLookup(assetstate.NewStatuses(a.api).Load(ctx))
	}
}

func defineInputFlags(fs *pflag.FlagSet) {
	fs.String("name", "", "asset name")
	fs.String("description", "", "free-form description")
	fs.String("category", "", "category, e.g. Laptop")
	fs.String("serial", "", "serial number")
	fs.String("purchase-date", "", "purchase date (YYYY-MM-DD)")
	fs.String("price", "", "purchase price, e.g. 1299.99")
	fs.String("status", string(models.StatusActive), "one of "+strings.Join(models.StatusStrings(), ", "))
}

// applyInputFlags overlays every explicitly set input flag onto base and
// reports whether any was set.
func applyInputFlags(fs *pflag.FlagSet, base models.AssetInput) (in models.AssetInput, changed bool, err error) {
	in = base
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		v := f.Value.String()
		switch f.Name {
		case "name", "description", "category", "serial", "purchase-date", "price", "status":
			changed = true
		}
		switch f.Name {
		case "name":
			in.Name = v
		case "description":
			in.Description = v
		case "category":
			in.Category = v
		case "serial":
			in.SerialNumber = v
		case "purchase-date":
			in.PurchaseDate, err = models.ParseDate(v)
		case "price":
			in.PurchasePrice, err = decimal.NewFromString(strings.TrimSpace(v))
			if err != nil {
				err = fmt.Errorf("invalid --price %q", v)
			}
		case "status":
			in.Status, err = models.ParseStatus(v)
		}
	})
	return in, changed, err
}

// reportMutation prints client-side validation messages, or falls back to an
// error toast for server and transport failures.
func (a *app) reportMutation(validation []string, err error) {
	if len(validation) > 0 {
		fmt.Fprintln(a.errOut, "Please fix the following:")
		for _, msg := range validation {
			fmt.Fprintf(a.errOut, "  - %s\n", msg)
		}
		return
	}
	a.toasts.ShowError(err)
}

func (a *app) printList(list *models.AssetList) {
	if len(list.Assets) == 0 {
		fmt.Fprintln(a.out, "No assets found.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tSERIAL\tSTATUS\tPURCHASED\tPRICE")
	for _, as := range list.Assets {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			as.ID, as.Name, orDash(as.Category), as.SerialNumber, as.Status,
			as.PurchaseDate, as.PurchasePrice.StringFixed(2))
	}
	_ = tw.Flush()
	fmt.Fprintf(a.out, "\nPage %d of %d (%d assets)\n", list.Page, list.TotalPages, list.Total)
}

func (a *app) printAsset(as *models.Asset) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", as.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", as.Name)
	fmt.Fprintf(tw, "Description:\t%s\n", orDash(as.Description))
	fmt.Fprintf(tw, "Category:\t%s\n", orDash(as.Category))
	fmt.Fprintf(tw, "Serial number:\t%s\n", as.SerialNumber)
	fmt.Fprintf(tw, "Purchase date:\t%s\n", as.PurchaseDate)
	fmt.Fprintf(tw, "Purchase price:\t%s\n", as.PurchasePrice.StringFixed(2))
	fmt.Fprintf(tw, "Status:\t%s\n", as.Status)
	if !as.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "Created:\t%s\n", as.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintf(tw, "Updated:\t%s\n", as.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func (a *app) printLookup(st assetstate.State[[]string]) error {
	if st.Err != "" {
		a.toasts.Add(st.Err, toast.Error, toast.ErrorDuration)
		return errReported
	}
	for _, v := range st.Data {
		fmt.Fprintln(a.out, v)
	}
	return nil
}

func idArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one asset ID")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid asset ID %q", args[0])
	}
	return id, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
