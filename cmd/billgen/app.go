package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/garyjia/gst-billing/internal/billing"
	"github.com/garyjia/gst-billing/internal/config"
	"github.com/garyjia/gst-billing/internal/container"
	"github.com/garyjia/gst-billing/internal/gst"
	"github.com/garyjia/gst-billing/internal/models"
	"github.com/garyjia/gst-billing/internal/service"
	"github.com/garyjia/gst-billing/internal/words"
	"github.com/garyjia/gst-billing/pkg/utils"
)

// newApp builds the billgen command tree. opts are passed to the synthesizer.
func newApp(out io.Writer, opts ...billing.Option) *cli.App {
	withBills := func(fn func(ctx context.Context, bills *service.BillService, out io.Writer, c *cli.Context) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			return runWithContainer(c, opts, func(ctr *container.Container) error {
				return fn(c.Context, ctr.BillService(), out, c)
			})
		}
	}

	return &cli.App{
		Name:                      "billgen",
		Usage:                     "generate GST tax invoice workbooks from a template",
		Writer:                    out,
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "configuration file; a missing file falls back to defaults",
				EnvVars: []string{"BILLING_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug output to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "fill a template and write Bill-<invoice>-<date>.xlsx",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "template file name in the templates folder"},
					&cli.StringSliceFlag{Name: "field", Aliases: []string{"f"}, Usage: "record field as key=value (repeatable)"},
					&cli.PathFlag{Name: "record", Aliases: []string{"r"}, Usage: "YAML file with template_name and fields"},
				},
				Action: withBills(generate),
			},
			{
				Name:      "words",
				Usage:     "print an amount in Indian-English currency words",
				ArgsUsage: "AMOUNT",
				Action: func(c *cli.Context) error {
					raw := strings.Join(c.Args().Slice(), "")
					if raw == "" {
						return fmt.Errorf("words: AMOUNT is required")
					}
					amount, err := words.Parse(raw)
					if err != nil {
						return fmt.Errorf("words: %w", err)
					}
					fmt.Fprintln(out, words.ToIndianCurrencyWords(amount))
					return nil
				},
			},
			{
				Name:  "totals",
				Usage: "compute CGST, SGST, IGST and the grand total",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "amount", Usage: "taxable amount", Required: true},
					&cli.StringFlag{Name: "cgst", Usage: "CGST rate in percent"},
					&cli.StringFlag{Name: "sgst", Usage: "SGST rate in percent"},
					&cli.StringFlag{Name: "igst", Usage: "IGST rate in percent"},
				},
				Action: func(c *cli.Context) error {
					totals := gst.ComputeRaw(c.String("amount"), c.String("cgst"), c.String("sgst"), c.String("igst"))
					printTotals(out, totals)
					return nil
				},
			},
			{
				Name:   "templates",
				Usage:  "list the available templates",
				Action: withBills(listTemplates),
			},
			{
				Name:   "bills",
				Usage:  "list generated bills, newest first",
				Action: withBills(listBills),
			},
			{
				Name:  "history",
				Usage: "show the generation ledger",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "number of entries"},
					&cli.StringFlag{Name: "invoice", Aliases: []string{"i"}, Usage: "only generations of this invoice number"},
				},
				Action: withBills(listHistory),
			},
			{
				Name:      "validate-template",
				Usage:     "check templates against the cell layout",
				ArgsUsage: "[NAME]",
				Action:    withBills(validateTemplates),
			},
		},
	}
}

func runWithContainer(c *cli.Context, opts []billing.Option, fn func(*container.Container) error) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	logger, err := utils.NewCLILogger(c.Bool("verbose"))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctr, err := container.NewContainer(cfg, logger, opts...)
	if err != nil {
		return err
	}
	if err := ctr.Start(c.Context); err != nil {
		return err
	}
	defer func() {
		if err := ctr.Close(); err != nil {
			logger.Warn("Failed to close container", zap.Error(err))
		}
	}()

	return fn(ctr)
}

func generate(ctx context.Context, bills *service.BillService, out io.Writer, c *cli.Context) error {
	req, err := buildRequest(c.Path("record"), c.String("template"), c.StringSlice("field"))
	if err != nil {
		return err
	}

	result, err := bills.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	fmt.Fprintf(out, "Bill written: %s\n", result.Path)
	if result.AmountInWords != "" {
		fmt.Fprintf(out, "Amount in words: %s\n", result.AmountInWords)
	}
	if len(result.OmittedFields) > 0 {
		fmt.Fprintf(out, "Skipped unparsable fields: %s\n", strings.Join(result.OmittedFields, ", "))
	}
	return nil
}

// buildRequest merges a YAML record file with --template and --field flags.
// Flags win over the file.
func buildRequest(recordPath, template string, fields []string) (service.GenerateRequest, error) {
	req := service.GenerateRequest{Fields: make(map[string]string)}

	if recordPath != "" {
		data, err := os.ReadFile(recordPath)
		if err != nil {
			return req, fmt.Errorf("failed to read record: %w", err)
		}
		if err := yaml.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("failed to parse record %s: %w", recordPath, err)
		}
		if req.Fields == nil {
			req.Fields = make(map[string]string)
		}
	}

	if template != "" {
		req.TemplateName = template
	}

	for _, kv := range fields {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return req, fmt.Errorf("invalid --field %q, want key=value", kv)
		}
		if !billing.IsKnownField(key) {
			return req, fmt.Errorf("unknown field %q", key)
		}
		req.Fields[key] = value
	}

	return req, nil
}

func listTemplates(_ context.Context, bills *service.BillService, out io.Writer, _ *cli.Context) error {
	names, err := bills.Templates()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

func listBills(_ context.Context, bills *service.BillService, out io.Writer, _ *cli.Context) error {
	files, err := bills.Bills()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSIZE\tMODIFIED")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%d\t%s\n", f.FileName, f.Size, f.ModifiedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func listHistory(ctx context.Context, bills *service.BillService, out io.Writer, c *cli.Context) error {
	var (
		records []*models.GenerationRecord
		err     error
	)
	if invoice := c.String("invoice"); invoice != "" {
		records, err = bills.InvoiceHistory(ctx, invoice)
	} else {
		records, err = bills.History(ctx, c.Int("limit"))
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GENERATED\tINVOICE\tTEMPLATE\tFILE\tOMITTED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.GeneratedAt.Format("2006-01-02 15:04"),
			r.InvoiceNumber,
			r.TemplateName,
			r.OutputPath,
			strings.Join(r.OmittedFields, ","))
	}
	return w.Flush()
}

func validateTemplates(_ context.Context, bills *service.BillService, out io.Writer, c *cli.Context) error {
	if name := c.Args().First(); name != "" {
		if err := bills.ValidateTemplate(name); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: ok\n", name)
		return nil
	}

	names, err := bills.Templates()
	if err != nil {
		return err
	}
	problems, err := bills.ValidateTemplates()
	if err != nil {
		return err
	}

	sort.Strings(names)
	for _, name := range names {
		if problem, ok := problems[name]; ok {
			fmt.Fprintf(out, "%s: %v\n", name, problem)
			continue
		}
		fmt.Fprintf(out, "%s: ok\n", name)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d of %d templates do not match the cell layout", len(problems), len(names))
	}
	return nil
}

func printTotals(out io.Writer, t gst.Totals) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Taxable amount\t%s\t\n", gst.FormatINR(t.Base))
	fmt.Fprintf(w, "CGST\t%s\t\n", gst.FormatINR(t.CGST))
	fmt.Fprintf(w, "SGST\t%s\t\n", gst.FormatINR(t.SGST))
	fmt.Fprintf(w, "IGST\t%s\t\n", gst.FormatINR(t.IGST))
	fmt.Fprintf(w, "Grand total\t%s\t\n", gst.FormatINR(t.GrandTotal))
	w.Flush()
}
